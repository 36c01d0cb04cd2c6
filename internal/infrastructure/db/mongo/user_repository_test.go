package mongo

import (
	"errors"
	"testing"

	"github.com/lims-qc/identity-service/internal/core/domain"
)

func TestDuplicateKeyField(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want error
	}{
		{
			"email index",
			`write exception: write errors: [E11000 duplicate key error collection: identity.users index: email_1 dup key: { email: "maria@example.com" }]`,
			domain.ErrEmailTaken,
		},
		{
			"username index",
			`write exception: write errors: [E11000 duplicate key error collection: identity.users index: username_1 dup key: { username: "maria" }]`,
			domain.ErrUsernameTaken,
		},
		{
			// The message embeds the colliding value; an email containing
			// "username" must still classify as an email conflict.
			"email value containing username",
			`write exception: write errors: [E11000 duplicate key error collection: identity.users index: email_1 dup key: { email: "username@example.com" }]`,
			domain.ErrEmailTaken,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := duplicateKeyField(errors.New(tc.msg))
			if !errors.Is(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
