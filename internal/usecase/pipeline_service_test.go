package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stockbox/backend/internal/domain"
	"github.com/stockbox/backend/internal/infrastructure/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extractReply = "```python\nuser_items = ['milk 1 gallon', 'eggs 1 dozen']\n```"

const priceReply = "```json\n" + `{
	"price_estimates": [
		{"item": "milk 1 gallon", "prices": {"Walmart": 3.48, "Food Lion": 3.79, "Harris Teeter": 4.29}},
		{"item": "eggs 1 dozen", "prices": {"Walmart": 2.97, "Food Lion": 3.19, "Harris Teeter": 3.49}}
	],
	"coupons_and_deals": [
		{"store": "Food Lion", "deal": "MVP card: $0.50 off eggs", "applies_to_items": ["eggs 1 dozen"]}
	],
	"cheapest_store_recommendation": {"store": "Walmart", "estimated_total_cost": 6.45}
}` + "\n```"

const restockReply = "restock_list = ['milk 2 gallons']"

func TestRunImageToRestock_EndToEnd(t *testing.T) {
	invoker := NewMockInvoker(reply(extractReply), reply(priceReply), reply(restockReply))
	svc, _ := newTestService(invoker, nil)

	result, err := svc.RunImageToRestock(context.Background(), RestockRequest{
		Image:  testImage,
		Target: []string{"milk 3 gallons", "eggs 1 dozen"},
	})

	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, []string{"milk 1 gallon", "eggs 1 dozen"}, domain.ItemStrings(result.Items))
	assert.Equal(t, []domain.RestockEntry{"milk 2 gallons"}, result.RestockList)

	require.Len(t, result.Comparison.PriceEstimates, 2)
	for _, est := range result.Comparison.PriceEstimates {
		for _, store := range testStores {
			_, ok := est.Prices[store]
			assert.True(t, ok, "%s missing %s", est.Item, store)
		}
	}
	assert.Equal(t, "Walmart", result.Comparison.CheapestStoreRecommendation.Store)
	assert.Equal(t, 6.45, result.Comparison.CheapestStoreRecommendation.EstimatedTotalCost)
	assert.False(t, result.Comparison.RecommendationAdjusted)
	assert.Len(t, result.Comparison.CouponsAndDeals, 1)

	require.Len(t, result.Stages, 3)
	for _, stage := range result.Stages {
		assert.Equal(t, domain.StageSucceeded, stage.Status, stage.Name)
	}

	require.Len(t, invoker.requests, 3)
	assert.NotNil(t, invoker.requests[0].Image)
	assert.Equal(t, "text/plain", invoker.requests[0].Config.ResponseMIMEType)
	assert.True(t, invoker.requests[1].Config.EnableSearch)
	assert.NotNil(t, invoker.requests[1].Config.ResponseSchema)
	assert.Contains(t, invoker.requests[1].Content, "['milk 1 gallon', 'eggs 1 dozen']")
	assert.Contains(t, invoker.requests[2].Content, "Inventory Target: ['milk 3 gallons', 'eggs 1 dozen']")
	assert.Contains(t, invoker.requests[2].Content, "Actual Stock: ['milk 1 gallon', 'eggs 1 dozen']")
	assert.Equal(t, "gemini-2.5-flash", invoker.requests[2].Config.Model)
}

func TestExtractItems_EmptyUsesFallback(t *testing.T) {
	fallbacks := [][]string{
		testFallback,
		{"bread 1 loaf"},
		{"apples 6", "butter 2 sticks", "olive oil 1 bottle", "rice"},
	}

	for _, fallback := range fallbacks {
		invoker := NewMockInvoker(reply("user_items = []"))
		svc, _ := newTestService(invoker, nil)

		stage, err := svc.ExtractItems(context.Background(), testImage, fallback)

		require.NoError(t, err)
		assert.True(t, stage.UsedFallback)
		assert.Equal(t, fallback, domain.ItemStrings(stage.Items))
		assert.Equal(t, domain.StageSucceededWithFallback, stage.Report.Status)
		assert.False(t, stage.Report.Failed())
	}
}

func TestExtractItems_NoImageUsesFallbackWithoutCalling(t *testing.T) {
	invoker := NewMockInvoker()
	svc, _ := newTestService(invoker, nil)

	stage, err := svc.ExtractItems(context.Background(), nil, testFallback)

	require.NoError(t, err)
	assert.Equal(t, domain.StageSucceededWithFallback, stage.Report.Status)
	assert.Equal(t, testFallback, domain.ItemStrings(stage.Items))
	assert.Empty(t, invoker.requests)
}

func TestExtractItems_MalformedFailsButKeepsBasket(t *testing.T) {
	raw := "user_items = [__import__('os').system('x')]"
	invoker := NewMockInvoker(reply(raw))
	svc, _ := newTestService(invoker, nil)

	stage, err := svc.ExtractItems(context.Background(), testImage, testFallback)

	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, stage.Report.Status)
	assert.Equal(t, raw, stage.Report.RawOutput)
	assert.True(t, stage.UsedFallback)
	assert.Equal(t, testFallback, domain.ItemStrings(stage.Items))
}

func TestExtractItems_NoFallbackIsAnError(t *testing.T) {
	invoker := NewMockInvoker(reply("user_items = []"))
	svc, _ := newTestService(invoker, nil)

	_, err := svc.ExtractItems(context.Background(), testImage, nil)

	assert.ErrorIs(t, err, domain.ErrEmptyResult)
}

func TestRunImageToRestock_PriceStageFailureContinues(t *testing.T) {
	invoker := NewMockInvoker(reply(extractReply), exhausted(), reply(restockReply))
	svc, _ := newTestService(invoker, nil)

	result, err := svc.RunImageToRestock(context.Background(), RestockRequest{Image: testImage})

	require.NoError(t, err)
	prices := result.Stage(domain.StageComparePrices)
	assert.Equal(t, domain.StageFailed, prices.Status)
	assert.Contains(t, prices.Error, "retries exhausted")
	assert.Empty(t, result.Comparison.PriceEstimates)
	assert.NotNil(t, result.Comparison.CouponsAndDeals)
	assert.Equal(t, domain.StageSucceeded, result.Stage(domain.StageRestock).Status)
	assert.Equal(t, []domain.RestockEntry{"milk 2 gallons"}, result.RestockList)
}

func TestRunImageToRestock_MalformedPricesKeepRawOutput(t *testing.T) {
	raw := `{"price_estimates": []}`
	invoker := NewMockInvoker(reply(extractReply), reply(raw), reply(restockReply))
	svc, _ := newTestService(invoker, nil)

	result, err := svc.RunImageToRestock(context.Background(), RestockRequest{Image: testImage})

	require.NoError(t, err)
	prices := result.Stage(domain.StageComparePrices)
	assert.True(t, prices.Failed())
	assert.Equal(t, raw, prices.RawOutput)
}

func TestRunImageToRestock_RestockFailure(t *testing.T) {
	invoker := NewMockInvoker(reply(extractReply), reply(priceReply), malformed("Here you go: milk"))
	svc, _ := newTestService(invoker, nil)

	result, err := svc.RunImageToRestock(context.Background(), RestockRequest{Image: testImage})

	require.NoError(t, err)
	restock := result.Stage(domain.StageRestock)
	assert.Equal(t, domain.StageFailed, restock.Status)
	assert.Equal(t, "Here you go: milk", restock.RawOutput)
	assert.Empty(t, result.RestockList)
	assert.NotNil(t, result.RestockList)
}

func TestRunImageToRestock_MissingAPIKeyHalts(t *testing.T) {
	invoker := NewMockInvoker(replyErr(domain.ErrMissingAPIKey))
	svc, _ := newTestService(invoker, nil)

	result, err := svc.RunImageToRestock(context.Background(), RestockRequest{Image: testImage})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.Len(t, invoker.requests, 1)
}

func TestRunImageToRestock_MissingAPIKeyInPriceStageHalts(t *testing.T) {
	invoker := NewMockInvoker(reply(extractReply), replyErr(domain.ErrMissingAPIKey))
	svc, _ := newTestService(invoker, nil)

	_, err := svc.RunImageToRestock(context.Background(), RestockRequest{Image: testImage})

	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.Len(t, invoker.requests, 2)
}

func TestRunImageToRestock_ListTargetIsPersisted(t *testing.T) {
	invoker := NewMockInvoker(reply(extractReply), reply(priceReply), reply(restockReply))
	svc, repo := newTestService(invoker, nil)
	ctx := context.Background()

	list, err := repo.CreateList(ctx, &domain.InventoryList{
		Name:  "Pantry",
		Items: []domain.InventoryItem{{Name: "milk", Quantity: "3 gallons"}, {Name: "eggs", Quantity: "1 dozen"}},
	})
	require.NoError(t, err)

	_, err = svc.RunImageToRestock(ctx, RestockRequest{Image: testImage, ListID: list.ID})
	require.NoError(t, err)

	assert.Contains(t, invoker.requests[2].Content, "Inventory Target: ['milk 3 gallons', 'eggs 1 dozen']")
	entries, err := repo.ListShoppingEntries(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "milk", entries[0].ItemName)
	assert.Equal(t, "2 gallons", entries[0].QuantityNeeded)
	assert.Equal(t, domain.SourceRestock, entries[0].Source)
}

func TestRunImageToRestock_UnknownList(t *testing.T) {
	svc, _ := newTestService(NewMockInvoker(), nil)

	_, err := svc.RunImageToRestock(context.Background(), RestockRequest{Image: testImage, ListID: 99})

	assert.ErrorIs(t, err, domain.ErrListNotFound)
}

func TestRunImageToRestock_Archive(t *testing.T) {
	t.Run("stored", func(t *testing.T) {
		archive := &MockArchive{}
		invoker := NewMockInvoker(reply(extractReply), reply(priceReply), reply(restockReply))
		svc, _ := newTestService(invoker, archive)

		result, err := svc.RunImageToRestock(context.Background(), RestockRequest{Image: testImage, ImageName: "fridge.jpg"})

		require.NoError(t, err)
		assert.Equal(t, []string{"fridge.jpg"}, archive.stored)
		assert.Equal(t, "https://cdn.example.com/audits/fridge.jpg", result.ImageURL)
	})

	t.Run("failure does not fail the run", func(t *testing.T) {
		archive := &MockArchive{err: errArchive}
		invoker := NewMockInvoker(reply(extractReply), reply(priceReply), reply(restockReply))
		svc, _ := newTestService(invoker, archive)

		result, err := svc.RunImageToRestock(context.Background(), RestockRequest{Image: testImage, ImageName: "fridge.jpg"})

		require.NoError(t, err)
		assert.Empty(t, result.ImageURL)
		assert.Len(t, result.Stages, 3)
	})
}

// recordingSleep captures retry delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestExtractItems_RetriedThroughGeminiClient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"user_items = ['milk 1 gallon', 'eggs 1 dozen']"}]}}]}`)
	}))
	defer server.Close()

	rec := &recordingSleep{}
	client := gemini.NewClient("test-key", server.URL, "gemini-test")
	client.SetRequestsPerMinute(0)
	client.SetRetryPolicy(gemini.RetryPolicy{MaxAttempts: 3, Backoff: gemini.LinearBackoff(time.Second), Sleep: rec.sleep})
	svc, _ := newTestService(client, nil)

	stage, err := svc.ExtractItems(context.Background(), testImage, testFallback)

	require.NoError(t, err)
	assert.Equal(t, domain.StageSucceeded, stage.Report.Status)
	assert.Equal(t, []string{"milk 1 gallon", "eggs 1 dozen"}, domain.ItemStrings(stage.Items))
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, rec.delays, 2)
	assert.Less(t, rec.delays[0], rec.delays[1])
}

func TestComparePrices_AlwaysTransientThroughGeminiClient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := gemini.NewClient("test-key", server.URL, "gemini-test")
	client.SetRequestsPerMinute(0)
	client.SetRetryPolicy(gemini.RetryPolicy{MaxAttempts: 3, Backoff: gemini.LinearBackoff(time.Second), Sleep: (&recordingSleep{}).sleep})
	svc, _ := newTestService(client, nil)

	stage, err := svc.ComparePrices(context.Background(), domain.ParseGroceryItems([]string{"milk 1 gallon"}))

	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, stage.Report.Status)
	assert.Contains(t, stage.Report.Error, domain.ErrExhaustedRetries.Error())
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunImageToRestock_CancelledContextHalts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"user_items = ['milk 1 gallon']"}]}}]}`)
	}))
	defer server.Close()

	client := gemini.NewClient("test-key", server.URL, "gemini-test")
	client.SetRequestsPerMinute(0)
	svc, repo := newTestService(client, nil)
	list, err := repo.CreateList(context.Background(), &domain.InventoryList{
		Name:  "Pantry",
		Items: []domain.InventoryItem{{Name: "milk", Quantity: "3 gallons"}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := svc.RunImageToRestock(ctx, RestockRequest{Image: testImage, ListID: list.ID})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
	entries, err := repo.ListShoppingEntries(context.Background(), list.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestComparePrices_SearchOnly(t *testing.T) {
	invoker := NewMockInvoker(reply(priceReply))
	svc, _ := newTestService(invoker, nil)
	svc.priceSearchOnly = true

	stage, err := svc.ComparePrices(context.Background(), domain.ParseGroceryItems([]string{"milk 1 gallon", "eggs 1 dozen"}))

	require.NoError(t, err)
	assert.Equal(t, domain.StageSucceeded, stage.Report.Status)
	assert.Equal(t, "Walmart", stage.Comparison.CheapestStoreRecommendation.Store)

	require.Len(t, invoker.requests, 1)
	cfg := invoker.requests[0].Config
	assert.True(t, cfg.EnableSearch)
	assert.Nil(t, cfg.ResponseSchema)
	assert.Empty(t, cfg.ResponseMIMEType)
}

func TestHalts(t *testing.T) {
	assert.True(t, halts(domain.ErrMissingAPIKey))
	assert.True(t, halts(context.Canceled))
	assert.False(t, halts(nil))
	assert.False(t, halts(domain.NewMalformed("x", "y")))
	assert.False(t, halts(errors.New("boom")))
}
