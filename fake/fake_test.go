package fake_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	authcore "github.com/chimerakang/authcore-go"
	"github.com/chimerakang/authcore-go/fake"
)

func TestStore_LoadBySubject(t *testing.T) {
	store := fake.NewStore(
		fake.WithUser(authcore.UserSnapshot{OpenID: "alice", Nickname: "alice", Permission: authcore.Provider}),
	)

	u, err := store.LoadBySubject(context.Background(), "alice")
	if err != nil {
		t.Fatalf("LoadBySubject() unexpected error: %v", err)
	}
	if u.Permission != authcore.Provider {
		t.Errorf("Permission = %v, want Provider", u.Permission)
	}
	if u.ID == 0 {
		t.Error("seeded user should have an assigned id")
	}

	_, err = store.LoadBySubject(context.Background(), "nobody")
	if !errors.Is(err, authcore.ErrUserNotFound) {
		t.Errorf("LoadBySubject(unknown) error = %v, want ErrUserNotFound", err)
	}
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	store := fake.NewStore(
		fake.WithUser(authcore.UserSnapshot{OpenID: "alice", Permission: authcore.User}),
	)

	u, err := store.LoadBySubject(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	u.Permission = authcore.Admin

	again, err := store.LoadBySubject(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if again.Permission != authcore.User {
		t.Errorf("mutating a loaded snapshot changed the store: Permission = %v", again.Permission)
	}
}

func TestStore_UpdatePermission(t *testing.T) {
	store := fake.NewStore(
		fake.WithUser(authcore.UserSnapshot{OpenID: "alice", Permission: authcore.User}),
	)

	updated, err := store.UpdatePermission(context.Background(), "alice", authcore.Admin)
	if err != nil {
		t.Fatalf("UpdatePermission() unexpected error: %v", err)
	}
	if updated.Permission != authcore.Admin {
		t.Errorf("Permission = %v, want Admin", updated.Permission)
	}

	_, err = store.UpdatePermission(context.Background(), "nobody", authcore.Admin)
	if !errors.Is(err, authcore.ErrUserNotFound) {
		t.Errorf("UpdatePermission(unknown) error = %v, want ErrUserNotFound", err)
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store := fake.NewStore(
		fake.WithUser(authcore.UserSnapshot{OpenID: "alice", Permission: authcore.User}),
	)

	// Concurrent redeems race; last writer wins is fine, a torn record is not.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		level := authcore.Provider
		if i%2 == 0 {
			level = authcore.Admin
		}
		wg.Add(1)
		go func(l authcore.PermissionLevel) {
			defer wg.Done()
			_, _ = store.UpdatePermission(context.Background(), "alice", l)
		}(level)
	}
	wg.Wait()

	u, err := store.LoadBySubject(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if u.Permission != authcore.Provider && u.Permission != authcore.Admin {
		t.Errorf("Permission = %v, want Provider or Admin", u.Permission)
	}
}

func TestStore_Create(t *testing.T) {
	store := fake.NewStore()

	created, err := store.Create(context.Background(), &authcore.UserSnapshot{
		OpenID:     "newbie",
		Permission: authcore.User,
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if created.ID == 0 {
		t.Error("Create() did not assign an id")
	}

	if _, err := store.Create(context.Background(), &authcore.UserSnapshot{OpenID: "newbie"}); err == nil {
		t.Error("Create() of duplicate open_id succeeded, want error")
	}
}

func TestExchanger(t *testing.T) {
	ex := fake.NewExchanger()
	ex.AddCode("code-1", "openid-1")

	ident, err := ex.Exchange(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Exchange() unexpected error: %v", err)
	}
	if ident.OpenID != "openid-1" {
		t.Errorf("OpenID = %q, want %q", ident.OpenID, "openid-1")
	}

	if _, err := ex.Exchange(context.Background(), "bogus"); err == nil {
		t.Error("Exchange(unknown code) succeeded, want error")
	}
}

func TestNewClient_LoginFlow(t *testing.T) {
	store := fake.NewStore(
		fake.WithUser(authcore.UserSnapshot{OpenID: "openid-1", Nickname: "alice", Permission: authcore.User}),
	)
	ex := fake.NewExchanger()
	ex.AddCode("code-1", "openid-1")

	client, err := fake.NewClient("fake-secret", store, ex)
	if err != nil {
		t.Fatal(err)
	}

	user, tok, err := client.Login(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if user.Nickname != "alice" {
		t.Errorf("Nickname = %q, want %q", user.Nickname, "alice")
	}

	resolved, err := client.Tokens().Resolve(tok)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if resolved.OpenID != "openid-1" {
		t.Errorf("OpenID = %q, want %q", resolved.OpenID, "openid-1")
	}
}

func TestNewClient_RegisterFlow(t *testing.T) {
	store := fake.NewStore()
	ex := fake.NewExchanger()
	ex.AddCode("code-9", "openid-9")

	client, err := fake.NewClient("fake-secret", store, ex)
	if err != nil {
		t.Fatal(err)
	}

	user, _, err := client.Register(context.Background(), "code-9", authcore.UserSnapshot{Nickname: "dave"})
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if user.Permission != authcore.User {
		t.Errorf("new user permission = %v, want User", user.Permission)
	}
	if user.OpenID != "openid-9" {
		t.Errorf("OpenID = %q, want %q", user.OpenID, "openid-9")
	}
}
