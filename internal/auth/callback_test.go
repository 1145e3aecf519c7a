package auth

import (
	"context"
	"testing"
)

func TestSafeCallbackURL(t *testing.T) {
	const base = "https://app.fieldscope.io"

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", base + "/"},
		{"relative path", "/dashboard", base + "/dashboard"},
		{"relative with query", "/login?next=%2Fdashboard", base + "/login?next=%2Fdashboard"},
		{"same origin absolute", base + "/dashboard", base + "/dashboard"},
		{"scheme relative", "//evil.example/phish", base + "/"},
		{"foreign host", "https://evil.example/phish", base + "/"},
		{"wrong scheme", "http://app.fieldscope.io/dashboard", base + "/"},
		{"opaque garbage", "javascript:alert(1)", base + "/"},
		{"trailing slash base", "/dashboard", base + "/dashboard"},
	}

	for _, tc := range cases {
		if got := SafeCallbackURL(tc.raw, base); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}

	if got := SafeCallbackURL("/x", base+"/"); got != base+"/x" {
		t.Fatalf("base with trailing slash: got %q", got)
	}
}

func TestContextSessionRoundTrip(t *testing.T) {
	sess := Session{UserID: "user-1", Role: RoleManager, OrganizationID: "org-1"}
	ctx := ContextWithSession(context.Background(), sess)

	got, ok := SessionFromContext(ctx)
	if !ok {
		t.Fatalf("session missing from context")
	}
	if got.UserID != "user-1" || got.Role != RoleManager {
		t.Fatalf("unexpected session: %+v", got)
	}

	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatalf("expected no session on fresh context")
	}
}
