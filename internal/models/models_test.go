package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUserJSONOmitsCredentials(t *testing.T) {
	user := User{ID: "u1", Username: "alice", Password: "$2a$10$hash", RefreshToken: "refresh"}
	out, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, leaked := range []string{"$2a$10$hash", "refresh", "password"} {
		if strings.Contains(string(out), leaked) {
			t.Fatalf("credential %q leaked into %s", leaked, out)
		}
	}
}

func TestNewPage(t *testing.T) {
	cases := []struct {
		name      string
		total     int64
		page      int
		limit     int
		wantPages int
		wantPrev  bool
		wantNext  bool
	}{
		{"empty", 0, 1, 10, 0, false, false},
		{"firstOfMany", 12, 1, 5, 3, false, true},
		{"middle", 12, 2, 5, 3, true, true},
		{"last", 12, 3, 5, 3, true, false},
		{"exact", 10, 2, 5, 2, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := NewPage[int](nil, tc.total, tc.page, tc.limit)
			if page.TotalPages != tc.wantPages || page.HasPrevPage != tc.wantPrev || page.HasNextPage != tc.wantNext {
				t.Fatalf("unexpected page metadata %+v", page)
			}
			if page.Docs == nil {
				t.Fatal("expected non-nil docs")
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(2, 5); got != 5 {
		t.Fatalf("expected offset 5 got %d", got)
	}
	if got := Offset(0, 5); got != 0 {
		t.Fatalf("expected offset 0 for page 0 got %d", got)
	}
}

func TestLikeTargetRoundTrip(t *testing.T) {
	now := time.Now()
	for _, kind := range []LikeTargetKind{LikeTargetVideo, LikeTargetComment, LikeTargetTweet} {
		target := LikeTarget{Kind: kind, ID: "target-1"}
		like := NewLike("like-1", "user-1", target, now)
		if like.Target() != target {
			t.Fatalf("expected %+v got %+v", target, like.Target())
		}
	}
}
