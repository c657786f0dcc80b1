package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/zulandar/colloquy/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Chat{}, &models.ChatParticipant{}, &models.Persona{}, &models.Message{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedPersona(t *testing.T, db *gorm.DB, id, name string) {
	t.Helper()
	if err := db.Create(&models.Persona{ID: id, Name: name}).Error; err != nil {
		t.Fatalf("seed persona: %v", err)
	}
}

func TestGenerateID(t *testing.T) {
	id, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	if !strings.HasPrefix(id, "ch-") || len(id) != 8 {
		t.Errorf("GenerateID = %q, want ch-xxxxx", id)
	}
}

func TestCreateAndGet(t *testing.T) {
	db := testDB(t)

	created, err := Create(db, CreateOpts{Title: "Tax policy", Topic: "Flat tax", CreatorName: "Dana"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := Get(db, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Tax policy" || got.Topic != "Flat tax" || got.CreatorName != "Dana" {
		t.Errorf("Get = %+v", got)
	}
}

func TestCreate_RequiresTitle(t *testing.T) {
	db := testDB(t)
	if _, err := Create(db, CreateOpts{}); err == nil {
		t.Error("expected error for missing title")
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := Get(db, "ch-nope0"); err == nil {
		t.Error("expected error for unknown chat")
	}
}

func TestParticipants_JoinOrder(t *testing.T) {
	db := testDB(t)
	c, _ := Create(db, CreateOpts{Title: "t"})
	seedPersona(t, db, "pe-aaa01", "Ada")
	seedPersona(t, db, "pe-bbb02", "Babbage")
	seedPersona(t, db, "pe-ccc03", "Curie")

	// Stagger CreatedAt so join order is unambiguous.
	base := time.Now().Add(-time.Minute)
	for i, pid := range []string{"pe-ccc03", "pe-aaa01", "pe-bbb02"} {
		link := models.ChatParticipant{ChatID: c.ID, PersonaID: pid, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := db.Create(&link).Error; err != nil {
			t.Fatalf("link: %v", err)
		}
	}

	got, err := Participants(db, c.ID)
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	var names []string
	for _, p := range got {
		names = append(names, p.Name)
	}
	want := "Curie,Ada,Babbage"
	if strings.Join(names, ",") != want {
		t.Errorf("Participants order = %v, want %s", names, want)
	}
}

func TestAddParticipants_SkipsDuplicates(t *testing.T) {
	db := testDB(t)
	c, _ := Create(db, CreateOpts{Title: "t"})
	seedPersona(t, db, "pe-aaa01", "Ada")
	seedPersona(t, db, "pe-bbb02", "Babbage")

	added, skipped, err := AddParticipants(db, c.ID, []string{"pe-aaa01", "pe-bbb02"})
	if err != nil || added != 2 || skipped != 0 {
		t.Fatalf("AddParticipants = %d added %d skipped, err %v", added, skipped, err)
	}

	added, skipped, err = AddParticipants(db, c.ID, []string{"pe-aaa01", "pe-bbb02"})
	if err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}
	if added != 0 || skipped != 2 {
		t.Errorf("re-add = %d added %d skipped, want 0 and 2", added, skipped)
	}
}

func TestRemoveParticipants(t *testing.T) {
	db := testDB(t)
	c, _ := Create(db, CreateOpts{Title: "t"})
	seedPersona(t, db, "pe-aaa01", "Ada")
	AddParticipants(db, c.ID, []string{"pe-aaa01"})

	removed, err := RemoveParticipants(db, c.ID, []string{"pe-aaa01"})
	if err != nil || removed != 1 {
		t.Fatalf("RemoveParticipants = %d, err %v", removed, err)
	}
	got, _ := Participants(db, c.ID)
	if len(got) != 0 {
		t.Errorf("participants remain: %v", got)
	}
}

func TestRecentMessages_OldestFirstWindow(t *testing.T) {
	db := testDB(t)
	c, _ := Create(db, CreateOpts{Title: "t"})

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 6; i++ {
		msg := models.Message{
			ChatID:    c.ID,
			Role:      models.RolePersona,
			Content:   strings.Repeat("x", i+1),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&msg).Error; err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	got, err := RecentMessages(db, c.ID, 4)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	// Last four messages, oldest first: lengths 3,4,5,6.
	for i, m := range got {
		if len(m.Content) != i+3 {
			t.Errorf("message %d content length = %d, want %d", i, len(m.Content), i+3)
		}
	}
}

func TestAppend_SetsTimestampsAndBumpsChat(t *testing.T) {
	db := testDB(t)
	c, _ := Create(db, CreateOpts{Title: "t"})

	msg := &models.Message{ChatID: c.ID, Role: models.RoleUser, Content: "hello"}
	if err := Append(db, msg); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if msg.ID == 0 {
		t.Error("expected message ID to be set")
	}

	if err := Append(db, &models.Message{ChatID: c.ID}); err == nil {
		t.Error("expected error for missing role")
	}
	if err := Append(db, &models.Message{Role: models.RoleUser}); err == nil {
		t.Error("expected error for missing chat ID")
	}
}

func TestSetLastSpeaker(t *testing.T) {
	db := testDB(t)
	c, _ := Create(db, CreateOpts{Title: "t"})

	if err := SetLastSpeaker(db, c.ID, "pe-aaa01"); err != nil {
		t.Fatalf("SetLastSpeaker: %v", err)
	}
	got, _ := Get(db, c.ID)
	if got.LastSpeakerID != "pe-aaa01" {
		t.Errorf("LastSpeakerID = %q", got.LastSpeakerID)
	}

	if err := SetLastSpeaker(db, "ch-nope0", "pe-aaa01"); err == nil {
		t.Error("expected error for unknown chat")
	}
}

func TestSetAutoMode(t *testing.T) {
	db := testDB(t)
	c, _ := Create(db, CreateOpts{Title: "t"})

	if err := SetAutoMode(db, c.ID, true); err != nil {
		t.Fatalf("SetAutoMode: %v", err)
	}
	got, _ := Get(db, c.ID)
	if !got.IsAutoMode {
		t.Error("auto mode should be on")
	}

	if err := SetAutoMode(db, c.ID, false); err != nil {
		t.Fatalf("SetAutoMode off: %v", err)
	}
	got, _ = Get(db, c.ID)
	if got.IsAutoMode {
		t.Error("auto mode should be off")
	}
}

func TestUserDisplayName(t *testing.T) {
	if got := UserDisplayName(&models.Chat{CreatorName: "Dana"}); got != "Dana" {
		t.Errorf("UserDisplayName = %q", got)
	}
	if got := UserDisplayName(&models.Chat{}); got != "Moderator" {
		t.Errorf("UserDisplayName = %q, want Moderator", got)
	}
	if got := UserDisplayName(nil); got != "Moderator" {
		t.Errorf("UserDisplayName(nil) = %q, want Moderator", got)
	}
}
