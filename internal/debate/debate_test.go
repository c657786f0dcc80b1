package debate

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/zulandar/colloquy/internal/breaker"
	"github.com/zulandar/colloquy/internal/chat"
	"github.com/zulandar/colloquy/internal/config"
	"github.com/zulandar/colloquy/internal/llm"
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
	if err := db.AutoMigrate(
		&models.Chat{}, &models.ChatParticipant{}, &models.Persona{},
		&models.Provider{}, &models.Message{}, &models.RateWindow{},
		&models.DebateSession{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// fakeClient returns scripted responses in order, then distinct synthetic
// arguments so multi-turn runs do not trip the repetition checks.
type fakeClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     [][]llm.Message
}

func (f *fakeClient) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return nil, f.err
	}
	i := len(f.calls) - 1
	if i >= len(f.responses) {
		return &llm.Response{
			Content: fmt.Sprintf("Fresh argument number %d keeps the discussion moving forward.", len(f.calls)),
		}, nil
	}
	return &llm.Response{Content: f.responses[i]}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fixture struct {
	db       *gorm.DB
	orch     *Orchestrator
	client   *fakeClient
	chatID   string
	personas []models.Persona
}

// newFixture builds a chat with n personas sharing one default provider
// and an orchestrator whose model client is the given fake.
func newFixture(t *testing.T, n int, client *fakeClient) *fixture {
	t.Helper()
	db := testDB(t)

	provider := models.Provider{
		ID: "pr-test1", Kind: "openai", Name: "Test", APIKey: "sk-test",
		Model: "gpt-4o", Temperature: 0.7, IsDefault: true,
	}
	if err := db.Create(&provider).Error; err != nil {
		t.Fatalf("seed provider: %v", err)
	}

	c, err := chat.Create(db, chat.CreateOpts{Title: "Debate", Topic: "Land value tax", CreatorName: "Dana"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	names := []string{"Ada", "Babbage", "Curie", "Darwin"}
	var personas []models.Persona
	for i := 0; i < n; i++ {
		p := models.Persona{ID: "pe-" + names[i], Name: names[i]}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed persona: %v", err)
		}
		personas = append(personas, p)
		if _, _, err := chat.AddParticipants(db, c.ID, []string{p.ID}); err != nil {
			t.Fatalf("add participant: %v", err)
		}
	}

	orch := New(Opts{
		DB:      db,
		Config:  config.DebateConfig{AutoTurns: 20, HardTurnLimit: 50, DailyLimit: 100},
		Breaker: breaker.NewRegistry(breaker.Config{}),
	})
	orch.newClient = func(cfg llm.Config) (llm.Client, error) { return client, nil }

	return &fixture{db: db, orch: orch, client: client, chatID: c.ID, personas: personas}
}
