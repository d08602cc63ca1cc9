package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/stockbox/backend/internal/domain"
	"github.com/stockbox/backend/internal/normalize"
	"github.com/stockbox/backend/internal/prompt"
)

// PipelineConfig holds the defaults a PipelineService applies to every run
type PipelineConfig struct {
	Stores          []string
	FallbackItems   []string
	TargetInventory []string
	Generation      domain.GenerationConfig
	// PriceSearchOnly drops the response schema and JSON MIME type from the
	// price stage and keeps the search tool. The reply is still checked
	// against the price shape locally.
	PriceSearchOnly bool
}

// PipelineService sequences prompt -> model -> normalize for every AI-backed
// task. It keeps no per-run state; everything a run needs is passed in or
// returned.
type PipelineService struct {
	invoker         domain.ModelInvoker
	repo            domain.InventoryRepository
	archive         domain.ImageArchive
	stores          []string
	fallback        []string
	target          []string
	gen             domain.GenerationConfig
	priceSearchOnly bool

	now      func() time.Time
	newRunID func() string
}

// NewPipelineService creates a pipeline service. archive may be nil.
func NewPipelineService(
	invoker domain.ModelInvoker,
	repo domain.InventoryRepository,
	archive domain.ImageArchive,
	config PipelineConfig,
) *PipelineService {
	return &PipelineService{
		invoker:         invoker,
		repo:            repo,
		archive:         archive,
		stores:          append([]string(nil), config.Stores...),
		fallback:        append([]string(nil), config.FallbackItems...),
		target:          append([]string(nil), config.TargetInventory...),
		gen:             config.Generation,
		priceSearchOnly: config.PriceSearchOnly,
		now:             time.Now,
		newRunID:        func() string { return uuid.NewString() },
	}
}

// Stores returns the configured store set.
func (s *PipelineService) Stores() []string {
	return append([]string(nil), s.stores...)
}

// ItemsStage is the result of item extraction.
type ItemsStage struct {
	Items        []domain.GroceryItem
	UsedFallback bool
	Report       domain.StageReport
}

// PriceStage is the result of price comparison.
type PriceStage struct {
	Comparison domain.PriceComparison
	Report     domain.StageReport
}

// RestockStage is the result of the target/stock diff.
type RestockStage struct {
	RestockList []domain.RestockEntry
	Report      domain.StageReport
}

// RestockRequest is the input of RunImageToRestock. Target and Fallback
// default to the configured lists; with ListID set, Target defaults to the
// list's items and the restock result is saved against it.
type RestockRequest struct {
	Image     *domain.Image
	ImageName string
	Target    []string
	Fallback  []string
	ListID    int64
}

// ExtractItems reads grocery items off image. An empty result, or a failed
// call, is replaced by fallback; an empty basket is never returned.
func (s *PipelineService) ExtractItems(ctx context.Context, image *domain.Image, fallback []string) (ItemsStage, error) {
	run := s.begin(domain.StageExtractItems)

	var (
		texts []string
		err   error
	)
	if image != nil && len(image.Data) > 0 {
		var raw string
		raw, err = s.generate(ctx, prompt.TaskExtractItems, prompt.Payload{Image: image})
		if err == nil {
			texts, err = normalize.AssignmentList(raw, prompt.UserItemsVar)
		}
		if halts(err) {
			s.end(run, domain.StageFailed, err)
			return ItemsStage{}, err
		}
	}

	items := domain.ParseGroceryItems(texts)
	if err == nil && len(items) > 0 {
		return ItemsStage{Items: items, Report: s.end(run, domain.StageSucceeded, nil)}, nil
	}

	fallbackItems := domain.ParseGroceryItems(fallback)
	if len(fallbackItems) == 0 {
		cause := err
		if cause == nil {
			cause = domain.ErrEmptyResult
		}
		s.end(run, domain.StageFailed, cause)
		return ItemsStage{}, fmt.Errorf("%w: no items extracted and no fallback list: %v", domain.ErrEmptyResult, cause)
	}

	log.Printf("[PIPELINE] Substituting %d fallback items", len(fallbackItems))
	stage := ItemsStage{Items: fallbackItems, UsedFallback: true}
	if err != nil {
		stage.Report = s.end(run, domain.StageFailed, err)
	} else {
		stage.Report = s.end(run, domain.StageSucceededWithFallback, nil)
	}
	return stage, nil
}

// ComparePrices asks the model for per-store prices of items. A failed call
// yields an empty comparison and a Failed report; the error return is
// reserved for conditions that halt the pipeline.
func (s *PipelineService) ComparePrices(ctx context.Context, items []domain.GroceryItem) (PriceStage, error) {
	run := s.begin(domain.StageComparePrices)
	texts := domain.ItemStrings(items)

	raw, err := s.generate(ctx, prompt.TaskPriceCompare, prompt.Payload{Items: texts, Stores: s.stores})
	var got domain.PriceComparison
	if err == nil {
		err = normalize.Decode(raw, normalize.ShapePriceComparison, &got)
	}
	if err != nil {
		report := s.end(run, domain.StageFailed, err)
		if halts(err) {
			return PriceStage{}, err
		}
		return PriceStage{Comparison: domain.EmptyPriceComparison(), Report: report}, nil
	}

	return PriceStage{
		Comparison: reconcilePrices(texts, s.stores, got),
		Report:     s.end(run, domain.StageSucceeded, nil),
	}, nil
}

// ComputeRestock diffs target against stock. An empty list is a valid
// answer; a missing or unparseable one fails the stage.
func (s *PipelineService) ComputeRestock(ctx context.Context, target, stock []string) (RestockStage, error) {
	run := s.begin(domain.StageRestock)

	raw, err := s.generate(ctx, prompt.TaskRestock, prompt.Payload{Target: target, Stock: stock})
	var texts []string
	if err == nil {
		texts, err = normalize.AssignmentList(raw, prompt.RestockListVar)
	}
	if err != nil {
		report := s.end(run, domain.StageFailed, err)
		if halts(err) {
			return RestockStage{}, err
		}
		return RestockStage{RestockList: []domain.RestockEntry{}, Report: report}, nil
	}

	return RestockStage{
		RestockList: domain.RestockEntries(texts),
		Report:      s.end(run, domain.StageSucceeded, nil),
	}, nil
}

// RunImageToRestock runs extraction, price comparison and restock in order
// and returns the combined envelope. Only a missing API key (or a cancelled
// caller) stops the run early.
func (s *PipelineService) RunImageToRestock(ctx context.Context, req RestockRequest) (*domain.PipelineResult, error) {
	target := req.Target
	if len(target) == 0 && req.ListID != 0 {
		list, err := s.repo.GetList(ctx, req.ListID)
		if err != nil {
			return nil, err
		}
		target = list.ItemStrings()
	}
	if len(target) == 0 {
		target = s.target
	}
	if len(target) == 0 {
		return nil, fmt.Errorf("%w: a target inventory is required", domain.ErrInvalidRequest)
	}
	fallback := req.Fallback
	if len(fallback) == 0 {
		fallback = s.fallback
	}

	result := &domain.PipelineResult{RunID: s.newRunID()}
	log.Printf("[PIPELINE] Run %s started", result.RunID)
	result.ImageURL = s.archiveImage(ctx, req.ImageName, req.Image)

	items, err := s.ExtractItems(ctx, req.Image, fallback)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", result.RunID, err)
	}
	result.Items = items.Items
	result.UsedFallback = items.UsedFallback
	result.Stages = append(result.Stages, items.Report)

	prices, err := s.ComparePrices(ctx, items.Items)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", result.RunID, err)
	}
	result.Comparison = prices.Comparison
	result.Stages = append(result.Stages, prices.Report)

	restock, err := s.ComputeRestock(ctx, target, domain.ItemStrings(items.Items))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", result.RunID, err)
	}
	result.RestockList = restock.RestockList
	result.Stages = append(result.Stages, restock.Report)

	if req.ListID != 0 && !restock.Report.Failed() && len(restock.RestockList) > 0 {
		entries := domain.ShoppingEntriesFrom(req.ListID, domain.SourceRestock, restock.RestockList)
		if err := s.repo.SaveShoppingEntries(ctx, entries); err != nil {
			return nil, fmt.Errorf("run %s: save restock list: %w", result.RunID, err)
		}
	}

	log.Printf("[PIPELINE] Run %s finished: %d items (fallback=%t), %d to restock",
		result.RunID, len(result.Items), result.UsedFallback, len(result.RestockList))
	return result, nil
}

// archiveImage stores the upload when an archive is configured. Failures are
// logged and never fail the run.
func (s *PipelineService) archiveImage(ctx context.Context, name string, img *domain.Image) string {
	if s.archive == nil || img == nil || len(img.Data) == 0 {
		return ""
	}
	url, err := s.archive.Store(ctx, name, img)
	if err != nil {
		log.Printf("[ARCHIVE] Failed to archive %q: %v", name, err)
		return ""
	}
	return url
}

// generate builds the prompt for task and sends it with the task's generation config.
func (s *PipelineService) generate(ctx context.Context, task prompt.Task, payload prompt.Payload) (string, error) {
	p, err := prompt.Build(task, payload)
	if err != nil {
		return "", err
	}
	return s.invoker.Generate(ctx, p.Request(s.configFor(task)))
}

func (s *PipelineService) configFor(task prompt.Task) domain.GenerationConfig {
	cfg := s.gen
	cfg.ResponseSchema = prompt.ResponseSchema(task, s.stores)
	switch task {
	case prompt.TaskExtractItems, prompt.TaskRestock:
		cfg.ResponseMIMEType = "text/plain"
	case prompt.TaskPriceCompare:
		// Gemini 2.x models may reject a search tool combined with
		// structured output (4xx, fatal). PriceSearchOnly is the way out.
		cfg.EnableSearch = true
		if s.priceSearchOnly {
			cfg.ResponseSchema = nil
			break
		}
		cfg.ResponseMIMEType = "application/json"
	default:
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

type stageRun struct {
	report domain.StageReport
	start  time.Time
}

func (s *PipelineService) begin(name string) *stageRun {
	log.Printf("[PIPELINE] Stage %s: %s -> %s", name, domain.StageNotRun, domain.StageRunning)
	return &stageRun{
		report: domain.StageReport{Name: name, Status: domain.StageRunning},
		start:  s.now(),
	}
}

func (s *PipelineService) end(run *stageRun, status domain.StageStatus, err error) domain.StageReport {
	run.report.Status = status
	run.report.DurationMS = s.now().Sub(run.start).Milliseconds()
	if err != nil {
		run.report.Error = err.Error()
		run.report.RawOutput = domain.RawOutput(err)
		log.Printf("[PIPELINE] Stage %s: %s -> %s: %v", run.report.Name, domain.StageRunning, status, err)
	} else {
		log.Printf("[PIPELINE] Stage %s: %s -> %s", run.report.Name, domain.StageRunning, status)
	}
	return run.report
}

// halts reports whether err must stop the whole pipeline instead of
// degrading the current stage.
func halts(err error) bool {
	return errors.Is(err, domain.ErrMissingAPIKey) || errors.Is(err, context.Canceled)
}
