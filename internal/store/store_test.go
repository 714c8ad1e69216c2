package store

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("建立測試資料庫失敗: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)

	user, err := s.CreateUser("alice", "secret123")
	if err != nil {
		t.Fatalf("建立使用者失敗: %v", err)
	}
	if _, err := s.CreateUser("alice", "secret123"); err == nil {
		t.Fatalf("重複帳號應被拒絕")
	}
	if _, err := s.CreateUser("bob", "123"); err == nil {
		t.Fatalf("過短密碼應被拒絕")
	}

	if _, err := s.Authenticate("alice", "wrong"); err == nil {
		t.Fatalf("錯誤密碼應驗證失敗")
	}
	got, err := s.Authenticate("alice", "secret123")
	if err != nil {
		t.Fatalf("正確密碼應驗證成功: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("驗證後的使用者 ID 不一致")
	}

	token, err := s.CreateSession(user.ID, 0)
	if err != nil {
		t.Fatalf("建立會話失敗: %v", err)
	}
	fromSession, err := s.GetUserBySession(token)
	if err != nil {
		t.Fatalf("會話查詢失敗: %v", err)
	}
	if fromSession.Username != "alice" {
		t.Fatalf("會話對應的使用者錯誤: %q", fromSession.Username)
	}
	if _, err := s.GetUserBySession("不存在的token"); err == nil {
		t.Fatalf("無效會話應被拒絕")
	}
}

func TestAINotesRoundTrip(t *testing.T) {
	s := newTestStore(t)

	notes, err := s.LoadAINotes("room-1", "ai_1")
	if err != nil {
		t.Fatalf("讀取不存在的筆記不應失敗: %v", err)
	}
	if notes != "" {
		t.Fatalf("不存在的筆記應為空字串，實際 %q", notes)
	}

	if err := s.SaveAINotes("room-1", "ai_1", "第 1 回合：小明可疑。"); err != nil {
		t.Fatalf("保存筆記失敗: %v", err)
	}
	if err := s.SaveAINotes("room-1", "ai_1", "第 2 回合：確認小明是狼。"); err != nil {
		t.Fatalf("覆寫筆記失敗: %v", err)
	}

	notes, err = s.LoadAINotes("room-1", "ai_1")
	if err != nil {
		t.Fatalf("讀取筆記失敗: %v", err)
	}
	if notes != "第 2 回合：確認小明是狼。" {
		t.Fatalf("應讀到最新筆記，實際 %q", notes)
	}

	if err := s.SaveAINotes("room-1", "ai_2", "別的玩家"); err != nil {
		t.Fatalf("保存筆記失敗: %v", err)
	}
	if err := s.ClearRoomNotes("room-1"); err != nil {
		t.Fatalf("清除房間筆記失敗: %v", err)
	}
	notes, err = s.LoadAINotes("room-1", "ai_1")
	if err != nil || notes != "" {
		t.Fatalf("清除後筆記應為空，實際 %q（err=%v）", notes, err)
	}
}
