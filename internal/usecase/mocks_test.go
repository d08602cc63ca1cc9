package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockbox/backend/internal/domain"
	"github.com/stockbox/backend/internal/infrastructure/store"
)

// MockInvoker replays scripted replies in call order
type MockInvoker struct {
	replies  []mockReply
	requests []domain.GenerationRequest
}

type mockReply struct {
	text string
	err  error
}

func NewMockInvoker(replies ...mockReply) *MockInvoker {
	return &MockInvoker{replies: replies}
}

func (m *MockInvoker) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	m.requests = append(m.requests, req)
	n := len(m.requests)
	if n > len(m.replies) {
		return "", fmt.Errorf("unexpected call %d", n)
	}
	return m.replies[n-1].text, m.replies[n-1].err
}

func reply(text string) mockReply { return mockReply{text: text} }
func replyErr(err error) mockReply { return mockReply{err: err} }
func malformed(raw string) mockReply { return replyErr(domain.NewMalformed(raw, "bad")) }
func exhausted() mockReply {
	return replyErr(&domain.ExhaustedRetriesError{
		Attempts: 3,
		Last:     &domain.CallError{StatusCode: 503, Err: domain.ErrTransient},
	})
}

// MockArchive records stored images
type MockArchive struct {
	stored []string
	err    error
}

func (m *MockArchive) Store(ctx context.Context, name string, img *domain.Image) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.stored = append(m.stored, name)
	return "https://cdn.example.com/audits/" + name, nil
}

var (
	testStores   = []string{"Walmart", "Food Lion", "Harris Teeter"}
	testFallback = []string{"milk 1 gallon", "large eggs dozen", "basmati rice 5kg"}
	testImage    = &domain.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}
	errArchive   = errors.New("bucket unavailable")
)

func newTestService(invoker domain.ModelInvoker, archive domain.ImageArchive) (*PipelineService, *store.MemoryRepository) {
	repo := store.NewMemoryRepository()
	svc := NewPipelineService(invoker, repo, archive, PipelineConfig{
		Stores:          testStores,
		FallbackItems:   testFallback,
		TargetInventory: []string{"milk 3 gallons", "eggs 1 dozen"},
		Generation: domain.GenerationConfig{
			Model:           "gemini-2.5-flash",
			Temperature:     0.4,
			TopK:            32,
			TopP:            1,
			MaxOutputTokens: 2048,
		},
	})
	svc.newRunID = func() string { return "run-1" }
	return svc, repo
}
