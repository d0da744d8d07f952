package auth

import (
	"errors"
	"testing"
	"time"

	"projector-server/internal/models"
)

func TestIssueAndParse(t *testing.T) {
	parser := NewTokenParser("secret", "projector-server", 0)

	token, err := parser.Issue(models.Actor{ID: "alice", Role: models.RoleManager}, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	actor, err := parser.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if actor.ID != "alice" || actor.Role != models.RoleManager {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestParseUnknownRoleFallsBackToViewer(t *testing.T) {
	parser := NewTokenParser("secret", "projector-server", 0)

	token, err := parser.Issue(models.Actor{ID: "bob", Role: "superuser"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	actor, err := parser.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if actor.Role != models.RoleViewer {
		t.Fatalf("role = %q, want viewer", actor.Role)
	}
}

func TestParseRejectsBadTokens(t *testing.T) {
	parser := NewTokenParser("secret", "projector-server", 0)
	other := NewTokenParser("other-secret", "projector-server", 0)
	foreign := NewTokenParser("secret", "someone-else", 0)

	wrongKey, _ := other.Issue(models.Actor{ID: "alice", Role: models.RoleAdmin}, time.Hour)
	wrongIssuer, _ := foreign.Issue(models.Actor{ID: "alice", Role: models.RoleAdmin}, time.Hour)
	expired, _ := parser.Issue(models.Actor{ID: "alice", Role: models.RoleAdmin}, -time.Hour)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{name: "garbage", token: "not-a-token", want: ErrInvalidToken},
		{name: "wrong key", token: wrongKey, want: ErrInvalidToken},
		{name: "wrong issuer", token: wrongIssuer, want: ErrInvalidToken},
		{name: "expired", token: expired, want: ErrTokenExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parser.Parse(tc.token); !errors.Is(err, tc.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  xyz ": "xyz",
		"Basic abc":    "",
		"":             "",
	}
	for header, want := range cases {
		if got := BearerToken(header); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
