package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/admin/customers/abc":       "/v1/admin/customers/:id",
		"/v1/admin/customers/abc/keys":  "/v1/admin/customers/:id/keys",
		"/v1/portal/keys/01HXYZ":        "/v1/portal/keys/:id",
		"/v1/business/search?q=acme":    "/v1/business/search",
		"/v1/admin/admins/01ABC":        "/v1/admin/admins/:id",
		"/v1/auth/admin/login":          "/v1/auth/admin/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
