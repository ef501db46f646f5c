package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"user-directory/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, r *UserRepo, name, email, address string, age int) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Age: age, Address: address}
	if email != "" {
		u.Email = strPtr(email)
	}
	if err := r.Create(context.Background(), u); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return u
}

func TestCreateAssignsIDs(t *testing.T) {
	r := NewUserRepo(newTestDB(t))
	a := seed(t, r, "alice", "alice@example.com", "", 30)
	b := seed(t, r, "bob", "bob@example.com", "", 25)
	if a.ID == 0 || b.ID == 0 {
		t.Fatalf("expected assigned ids, got %d and %d", a.ID, b.ID)
	}
	if b.ID <= a.ID {
		t.Fatalf("expected increasing ids, got %d then %d", a.ID, b.ID)
	}
}

func TestCreateDuplicateEmailHitsIndex(t *testing.T) {
	r := NewUserRepo(newTestDB(t))
	seed(t, r, "alice", "a@b.com", "", 30)

	dup := &domain.User{Name: "bob", Age: 25, Email: strPtr("a@b.com")}
	err := r.Create(context.Background(), dup)
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateWithoutEmailDoesNotCollide(t *testing.T) {
	r := NewUserRepo(newTestDB(t))
	seed(t, r, "alice", "", "", 30)
	seed(t, r, "bob", "", "", 25) // 两条 NULL 邮箱不触发唯一索引
}

func TestEmailTakenExcludesRecord(t *testing.T) {
	r := NewUserRepo(newTestDB(t))
	u := seed(t, r, "alice", "a@b.com", "", 30)

	taken, err := r.EmailTaken(context.Background(), "a@b.com", 0)
	if err != nil || !taken {
		t.Fatalf("expected taken=true, got %v %v", taken, err)
	}
	taken, err = r.EmailTaken(context.Background(), "a@b.com", u.ID)
	if err != nil || taken {
		t.Fatalf("expected taken=false when excluding owner, got %v %v", taken, err)
	}
}

func TestListInsertionOrderAndPaging(t *testing.T) {
	r := NewUserRepo(newTestDB(t))
	ids := make([]uint, 0, 7)
	for _, n := range []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7"} {
		ids = append(ids, seed(t, r, n, n+"@x.com", "", 20).ID)
	}

	users, total, err := r.List(context.Background(), domain.ListQuery{Offset: 3, Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 7 {
		t.Fatalf("total = %d, want 7", total)
	}
	if len(users) != 3 {
		t.Fatalf("page size = %d, want 3", len(users))
	}
	for i, u := range users {
		if u.ID != ids[3+i] {
			t.Fatalf("row %d: id %d, want %d", i, u.ID, ids[3+i])
		}
	}
}

func TestListSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	r := NewUserRepo(newTestDB(t))
	seed(t, r, "alice smith", "alice@example.com", "12 main st", 30)
	seed(t, r, "bob", "bob@other.org", "44 oak ave", 25)
	seed(t, r, "carol", "carol@example.com", "main road 9", 40)

	users, total, err := r.List(context.Background(), domain.ListQuery{Search: "MAIN", Offset: 0, Limit: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Fatalf("matched %d/%d, want 2/2", len(users), total)
	}

	users, _, err = r.List(context.Background(), domain.ListQuery{Search: "Example.COM", Offset: 0, Limit: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("email search matched %d, want 2", len(users))
	}
}

func TestListSearchTreatsWildcardsAsLiterals(t *testing.T) {
	r := NewUserRepo(newTestDB(t))
	seed(t, r, "alice", "alice@example.com", "12 main st", 30)
	seed(t, r, "bob", "bob@example.com", "", 25)
	seed(t, r, "jan", "jan@example.com", "", 40)

	// LIKE 元字符是字面文本，不是通配符
	for _, s := range []string{"%", "j_n", "_", "%%"} {
		_, total, err := r.List(context.Background(), domain.ListQuery{Search: s, Offset: 0, Limit: 5})
		if err != nil {
			t.Fatalf("search %q: %v", s, err)
		}
		if total != 0 {
			t.Errorf("search %q matched %d records, want 0", s, total)
		}
	}

	// 包含元字符的真实子串仍要能命中
	seed(t, r, "percy", "percy@example.com", "100% cotton mill", 50)
	users, total, err := r.List(context.Background(), domain.ListQuery{Search: "100%", Offset: 0, Limit: 5})
	if err != nil {
		t.Fatalf("search 100%%: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Name != "percy" {
		t.Fatalf("literal %% search: total=%d users=%+v", total, users)
	}
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"plain":   "plain",
		"50%":     "50!%",
		"a_b":     "a!_b",
		"woah!":   "woah!!",
		"!%_":     "!!!%!_",
		`back\sl`: `back\sl`, // '\' 不是转义符，原样保留
	}
	for in, want := range cases {
		if got := EscapeLike(in); got != want {
			t.Errorf("EscapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeleteReportsMissing(t *testing.T) {
	r := NewUserRepo(newTestDB(t))
	u := seed(t, r, "alice", "a@b.com", "", 30)

	ok, err := r.Delete(context.Background(), u.ID)
	if err != nil || !ok {
		t.Fatalf("delete existing: %v %v", ok, err)
	}
	ok, err = r.Delete(context.Background(), u.ID)
	if err != nil || ok {
		t.Fatalf("delete missing: expected ok=false, got %v %v", ok, err)
	}
}

func TestFindByIDMissingIsNil(t *testing.T) {
	r := NewUserRepo(newTestDB(t))
	u, err := r.FindByID(context.Background(), 12345)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil, got %+v", u)
	}
}
