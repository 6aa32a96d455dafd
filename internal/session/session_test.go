package session

import (
	"net/http"
	"testing"

	"github.com/olegiv/accounts-go/internal/testutil"
)

func TestNew(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, false)

	if sm.Lifetime != Lifetime {
		t.Errorf("Lifetime = %v, want %v", sm.Lifetime, Lifetime)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", sm.Cookie.SameSite)
	}
	if !sm.Cookie.Secure {
		t.Error("production sessions must use Secure cookies")
	}
}

func TestNew_DevelopmentCookies(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	sm := New(db, true)
	if sm.Cookie.Secure {
		t.Error("development sessions must not require Secure cookies")
	}
}
