package safeurl

import (
	"context"
	"errors"
	"testing"
)

type fakeResolver map[string][]string

func (f fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if a, ok := f[host]; ok {
		return a, nil
	}
	return nil, errors.New("no such host")
}

func TestCheckWith(t *testing.T) {
	r := fakeResolver{
		"example.com":   {"93.184.216.34"},
		"intranet.corp": {"10.1.2.3"},
		"mixed.test":    {"93.184.216.34", "127.0.0.1"},
	}
	tests := []struct {
		url  string
		want error
	}{
		{"https://example.com/page", nil},
		{"http://example.com", nil},
		{"ftp://example.com/x", ErrScheme},
		{"javascript:alert(1)", ErrScheme},
		{"file:///etc/passwd", ErrScheme},
		{"http://127.0.0.1/admin", ErrPrivate},
		{"http://10.0.0.1/", ErrPrivate},
		{"http://192.168.1.1/", ErrPrivate},
		{"http://172.16.0.1/", ErrPrivate},
		{"http://169.254.169.254/latest/meta-data", ErrPrivate},
		{"http://[::1]/", ErrPrivate},
		{"http://[::ffff:127.0.0.1]/", ErrPrivate},
		{"http://0.0.0.0/", ErrPrivate},
		{"http://localhost:8080/", ErrPrivate},
		{"http://app.localhost/", ErrPrivate},
		{"http://intranet.corp/", ErrPrivate},
		{"http://mixed.test/", ErrPrivate},
		{"http://unresolvable.test/", nil},
	}
	for _, tt := range tests {
		err := CheckWith(context.Background(), r, tt.url)
		if tt.want == nil && err != nil {
			t.Errorf("%s: unexpected error %v", tt.url, err)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.url, err, tt.want)
		}
	}
}

func TestCheckWith_NoHost(t *testing.T) {
	if err := CheckWith(context.Background(), fakeResolver{}, "http:///path"); err == nil {
		t.Error("expected error for missing host")
	}
}
