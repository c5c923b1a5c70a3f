package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"devis_backend/internal/assistant"
	"devis_backend/internal/catalog/repository"
	"devis_backend/internal/catalog/transport"
	"devis_backend/platform/apperr"
	"devis_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	items    []repository.PriceItem
	lastList repository.ListParams
}

func (f *fakeRepo) Create(_ context.Context, p repository.CreateParams) (repository.PriceItem, error) {
	item := repository.PriceItem{
		ID: p.ID, CompanyID: p.CompanyID, Label: p.Label, PriceExclTax: p.PriceExclTax,
		Unit: p.Unit, Category: p.Category, TaxRate: p.TaxRate, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeRepo) CreateMany(ctx context.Context, params []repository.CreateParams) ([]repository.PriceItem, error) {
	out := make([]repository.PriceItem, 0, len(params))
	for _, p := range params {
		item, _ := f.Create(ctx, p)
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, p repository.UpdateParams) (repository.PriceItem, error) {
	for i, item := range f.items {
		if item.ID != p.ID || item.CompanyID != p.CompanyID {
			continue
		}
		if p.Label != nil {
			item.Label = *p.Label
		}
		if p.PriceExclTax != nil {
			item.PriceExclTax = *p.PriceExclTax
		}
		if p.Category != nil {
			item.Category = *p.Category
		}
		f.items[i] = item
		return item, nil
	}
	return repository.PriceItem{}, apperr.NotFound("article introuvable")
}

func (f *fakeRepo) Delete(_ context.Context, companyID, id uuid.UUID) error {
	for i, item := range f.items {
		if item.ID == id && item.CompanyID == companyID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("article introuvable")
}

func (f *fakeRepo) List(_ context.Context, p repository.ListParams) ([]repository.PriceItem, int, error) {
	f.lastList = p
	var matched []repository.PriceItem
	for _, item := range f.items {
		if item.CompanyID != p.CompanyID {
			continue
		}
		if p.Category != "" && item.Category != p.Category {
			continue
		}
		if p.Search != "" && !strings.Contains(strings.ToLower(item.Label), strings.ToLower(p.Search)) {
			continue
		}
		matched = append(matched, item)
	}
	total := len(matched)
	start := min(p.Offset, total)
	end := min(start+p.Limit, total)
	return matched[start:end], total, nil
}

func (f *fakeRepo) Categories(_ context.Context, companyID uuid.UUID) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, item := range f.items {
		if item.CompanyID == companyID && !seen[item.Category] {
			seen[item.Category] = true
			out = append(out, item.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeExtractor struct {
	items []assistant.ExtractedItem
	err   error
	text  string
}

func (f *fakeExtractor) ExtractPriceItems(_ context.Context, text string) ([]assistant.ExtractedItem, error) {
	f.text = text
	return f.items, f.err
}

func seed(repo *fakeRepo, companyID uuid.UUID, label, category string) {
	repo.items = append(repo.items, repository.PriceItem{
		ID: uuid.New(), CompanyID: companyID, Label: label, Category: category,
		PriceExclTax: decimal.NewFromInt(10), Unit: "u", TaxRate: decimal.NewFromInt(20),
	})
}

func TestFoldKey(t *testing.T) {
	cases := map[string]string{
		"Électricité":      "electricite",
		"  PLOMBERIE  ":    "plomberie",
		"Gros   œuvre":     "gros œuvre",
		"Peinture & Déco":  "peinture & deco",
		"Menuiserie Extér": "menuiserie exter",
	}
	for in, want := range cases {
		if got := foldKey(in); got != want {
			t.Fatalf("foldKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListMatchesCategoryWithoutAccents(t *testing.T) {
	repo := &fakeRepo{}
	companyID := uuid.New()
	seed(repo, companyID, "Prise", "Électricité")
	seed(repo, companyID, "Robinet", "Plomberie")
	svc := New(repo, &fakeExtractor{}, logger.Discard())

	got, err := svc.List(context.Background(), companyID, transport.ListPriceItemsRequest{Category: "electricite"})
	require.NoError(t, err)
	require.Equal(t, "Électricité", repo.lastList.Category)
	require.Len(t, got.Items, 1)
	require.Equal(t, "Prise", got.Items[0].Label)

	got, err = svc.List(context.Background(), companyID, transport.ListPriceItemsRequest{Category: "toutes"})
	require.NoError(t, err)
	require.Empty(t, repo.lastList.Category)
	require.Equal(t, 2, got.Total)
}

func TestListClampsPaging(t *testing.T) {
	repo := &fakeRepo{}
	companyID := uuid.New()
	for i := 0; i < 5; i++ {
		seed(repo, companyID, "Article", "Divers")
	}
	svc := New(repo, &fakeExtractor{}, logger.Discard())

	got, err := svc.List(context.Background(), companyID, transport.ListPriceItemsRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, got.Page)
	require.Equal(t, defaultPageSize, got.PageSize)
	require.Equal(t, 1, got.TotalPages)

	got, err = svc.List(context.Background(), companyID, transport.ListPriceItemsRequest{Page: 2, PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, maxPageSize, repo.lastList.Limit)
	require.Equal(t, maxPageSize, repo.lastList.Offset)
	require.Empty(t, got.Items)

	_, err = svc.List(context.Background(), companyID, transport.ListPriceItemsRequest{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 4, repo.lastList.Offset)
}

func TestCreateDefaultsAndReusesCategorySpelling(t *testing.T) {
	repo := &fakeRepo{}
	companyID := uuid.New()
	seed(repo, companyID, "Prise", "Électricité")
	svc := New(repo, &fakeExtractor{}, logger.Discard())

	got, err := svc.Create(context.Background(), companyID, transport.CreatePriceItemRequest{
		Label:    "Interrupteur",
		PriceHT:  decimal.RequireFromString("12.345"),
		Category: "ELECTRICITE",
	})
	require.NoError(t, err)
	require.Equal(t, "Électricité", got.Category)
	require.Equal(t, "u", got.Unit)
	require.Equal(t, "12.35", got.PriceHT.String())
	require.Equal(t, "20", got.TaxRate.String())

	got, err = svc.Create(context.Background(), companyID, transport.CreatePriceItemRequest{Label: "Divers", PriceHT: decimal.Zero})
	require.NoError(t, err)
	require.Equal(t, repository.AllCategories, got.Category)
}

func TestCreateRejectsNegativeAmounts(t *testing.T) {
	svc := New(&fakeRepo{}, &fakeExtractor{}, logger.Discard())
	_, err := svc.Create(context.Background(), uuid.New(), transport.CreatePriceItemRequest{Label: "x", PriceHT: decimal.NewFromInt(-1)})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	bad := decimal.NewFromInt(150)
	_, err = svc.Create(context.Background(), uuid.New(), transport.CreatePriceItemRequest{Label: "x", TaxRate: &bad})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateAndDelete(t *testing.T) {
	repo := &fakeRepo{}
	companyID := uuid.New()
	seed(repo, companyID, "Prise", "Électricité")
	id := repo.items[0].ID
	svc := New(repo, &fakeExtractor{}, logger.Discard())

	label := "Prise double"
	price := decimal.RequireFromString("18.5")
	got, err := svc.Update(context.Background(), companyID, id, transport.UpdatePriceItemRequest{Label: &label, PriceHT: &price})
	require.NoError(t, err)
	require.Equal(t, "Prise double", got.Label)
	require.Equal(t, "18.50", got.PriceHT.String())

	_, err = svc.Update(context.Background(), uuid.New(), id, transport.UpdatePriceItemRequest{Label: &label})
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, svc.Delete(context.Background(), companyID, id))
	require.True(t, apperr.Is(svc.Delete(context.Background(), companyID, id), apperr.KindNotFound))
}

func TestImportPreviewDoesNotPersist(t *testing.T) {
	repo := &fakeRepo{}
	companyID := uuid.New()
	seed(repo, companyID, "Robinet", "Plomberie")
	extractor := &fakeExtractor{items: []assistant.ExtractedItem{
		{Label: "Mitigeur", PriceHT: 89.9, Unit: "u", Category: "plomberie"},
		{Label: "Carrelage", PriceHT: 35, Unit: "m2", Category: "Revêtements"},
	}}
	svc := New(repo, extractor, logger.Discard())

	got, err := svc.Import(context.Background(), companyID, "tarifs.csv", []byte("Désignation;Prix\nMitigeur;89,90\n"), false)
	require.NoError(t, err)
	require.False(t, got.Committed)
	require.Equal(t, 2, got.Count)
	require.Equal(t, "Plomberie", got.Preview[0].Category)
	require.Equal(t, "89.90", got.Preview[0].PriceHT.String())
	require.Contains(t, extractor.text, "Mitigeur")
	require.Len(t, repo.items, 1)
}

func TestImportCommitPersists(t *testing.T) {
	repo := &fakeRepo{}
	companyID := uuid.New()
	extractor := &fakeExtractor{items: []assistant.ExtractedItem{
		{Label: "Pose parquet", PriceHT: 28, Unit: "m2", Category: "Sols"},
	}}
	svc := New(repo, extractor, logger.Discard())

	got, err := svc.Import(context.Background(), companyID, "tarifs.txt", []byte("Pose parquet 28€/m2"), true)
	require.NoError(t, err)
	require.True(t, got.Committed)
	require.Len(t, got.Items, 1)
	require.Len(t, repo.items, 1)
	require.Equal(t, "20", repo.items[0].TaxRate.String())
}

func TestImportErrors(t *testing.T) {
	svc := New(&fakeRepo{}, &fakeExtractor{}, logger.Discard())
	_, err := svc.Import(context.Background(), uuid.New(), "devis.docx", []byte("x"), false)
	require.True(t, apperr.Is(err, apperr.KindBadRequest))

	svc = New(&fakeRepo{}, &fakeExtractor{err: errors.New("timeout")}, logger.Discard())
	_, err = svc.Import(context.Background(), uuid.New(), "tarifs.txt", []byte("Pose 10€"), false)
	require.True(t, apperr.Is(err, apperr.KindUnavailable))

	svc = New(&fakeRepo{}, assistant.Unconfigured{}, logger.Discard())
	_, err = svc.Import(context.Background(), uuid.New(), "tarifs.txt", []byte("Pose 10€"), false)
	require.True(t, apperr.Is(err, apperr.KindUnavailable))
}

func TestPromptCatalog(t *testing.T) {
	repo := &fakeRepo{}
	companyID := uuid.New()
	seed(repo, companyID, "Prise", "Électricité")
	svc := New(repo, &fakeExtractor{}, logger.Discard())

	got, err := svc.PromptCatalog(context.Background(), companyID, 200)
	require.NoError(t, err)
	require.Equal(t, 200, repo.lastList.Limit)
	require.Equal(t, []assistant.CatalogEntry{{Label: "Prise", PriceHT: 10, Unit: "u", Category: "Électricité"}}, got)
}
