package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"devis_backend/internal/clients/repository"
	"devis_backend/internal/clients/transport"
	"devis_backend/platform/apperr"
	"devis_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	clients   []repository.Client
	lastLimit int
}

func (f *fakeRepo) Create(_ context.Context, p repository.CreateParams) (repository.Client, error) {
	c := repository.Client{
		ID: p.ID, CompanyID: p.CompanyID, Name: p.Name, Type: p.Type, Address: p.Address,
		Email: p.Email, Phone: p.Phone, SiteAddress: p.SiteAddress, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.clients = append(f.clients, c)
	return c, nil
}

func (f *fakeRepo) GetByID(_ context.Context, companyID, id uuid.UUID) (repository.Client, error) {
	for _, c := range f.clients {
		if c.ID == id && c.CompanyID == companyID {
			return c, nil
		}
	}
	return repository.Client{}, apperr.NotFound("client introuvable")
}

func (f *fakeRepo) Update(ctx context.Context, p repository.UpdateParams) (repository.Client, error) {
	for i, c := range f.clients {
		if c.ID == p.ID && c.CompanyID == p.CompanyID {
			if p.Name != nil {
				c.Name = *p.Name
			}
			if p.Phone != nil {
				c.Phone = *p.Phone
			}
			f.clients[i] = c
			return c, nil
		}
	}
	return repository.Client{}, apperr.NotFound("client introuvable")
}

func (f *fakeRepo) Search(_ context.Context, companyID uuid.UUID, query string, limit int) ([]repository.Client, error) {
	f.lastLimit = limit
	var out []repository.Client
	for _, c := range f.clients {
		if c.CompanyID == companyID && strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) {
			out = append(out, c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestCreateDefaultsAndNormalizes(t *testing.T) {
	svc := New(&fakeRepo{}, logger.Discard())
	got, err := svc.Create(context.Background(), uuid.New(), transport.CreateClientRequest{
		Name:  "  <b>Mme Durand</b> ",
		Email: " Durand@Example.FR",
		Phone: "01 23 45 67 89",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Name != "Mme Durand" {
		t.Fatalf("expected sanitized name, got %q", got.Name)
	}
	if got.Type != repository.TypeIndividual {
		t.Fatalf("expected default type particulier, got %q", got.Type)
	}
	if got.Email != "durand@example.fr" || got.Phone != "+33123456789" {
		t.Fatalf("unexpected contact %q %q", got.Email, got.Phone)
	}
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc := New(&fakeRepo{}, logger.Discard())
	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateClientRequest{Name: "<i></i>"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchClampsLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo, logger.Discard())
	companyID := uuid.New()

	cases := map[int]int{0: 10, -3: 10, 5: 5, 50: 50, 500: 50}
	for in, want := range cases {
		if _, err := svc.Search(context.Background(), companyID, transport.SearchClientsRequest{Limit: in}); err != nil {
			t.Fatalf("search: %v", err)
		}
		if repo.lastLimit != want {
			t.Fatalf("limit %d: expected %d, got %d", in, want, repo.lastLimit)
		}
	}
}

func TestSearchIsScopedToCompany(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo, logger.Discard())
	mine, other := uuid.New(), uuid.New()
	for _, name := range []string{"Durand", "Dupont"} {
		if _, err := svc.Create(context.Background(), mine, transport.CreateClientRequest{Name: name}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := svc.Create(context.Background(), other, transport.CreateClientRequest{Name: "Durandal"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Search(context.Background(), mine, transport.SearchClientsRequest{Query: "DURA"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Durand" {
		t.Fatalf("unexpected results %+v", got)
	}
}

func TestGetOtherCompanyIsNotFound(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo, logger.Discard())
	created, err := svc.Create(context.Background(), uuid.New(), transport.CreateClientRequest{Name: "Durand"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Get(context.Background(), uuid.New(), created.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
