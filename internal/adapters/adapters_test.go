package adapters

import (
	"context"
	"errors"
	"testing"

	clienttransport "devis_backend/internal/clients/transport"
	companyrepo "devis_backend/internal/company/repository"
	quotestransport "devis_backend/internal/quotes/transport"
	"devis_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeClients struct {
	created clienttransport.CreateClientRequest
}

func (f *fakeClients) Get(_ context.Context, _, id uuid.UUID) (clienttransport.ClientResponse, error) {
	return clienttransport.ClientResponse{ID: id, Name: "Mme Durand", Type: "particulier", Email: "durand@example.fr"}, nil
}

func (f *fakeClients) Create(_ context.Context, _ uuid.UUID, req clienttransport.CreateClientRequest) (clienttransport.ClientResponse, error) {
	f.created = req
	return clienttransport.ClientResponse{ID: uuid.New(), Name: req.Name, Type: req.Type, SiteAddress: req.SiteAddress}, nil
}

func TestQuotesClientDirectory(t *testing.T) {
	store := &fakeClients{}
	dir := NewQuotesClientDirectory(store)

	id := uuid.New()
	got, err := dir.GetQuoteClient(context.Background(), uuid.New(), id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, "durand@example.fr", got.Email)

	created, err := dir.CreateQuoteClient(context.Background(), uuid.New(), quotestransport.NewClientRequest{
		Name: "SCI Les Tilleuls", Type: "pro", SiteAddress: "3 rue des Lilas",
	})
	require.NoError(t, err)
	require.Equal(t, "SCI Les Tilleuls", store.created.Name)
	require.Equal(t, "3 rue des Lilas", created.SiteAddress)
	require.NotEqual(t, uuid.Nil, created.ID)
}

type fakeCompanies struct {
	logoErr error
}

func (f fakeCompanies) Profile(_ context.Context, id uuid.UUID) (companyrepo.Company, error) {
	return companyrepo.Company{ID: id, Name: "Martin BTP", SIRET: "12345678900011", IBAN: "FR76", LogoKey: "logo.png"}, nil
}

func (f fakeCompanies) LogoBytes(context.Context, companyrepo.Company) ([]byte, error) {
	if f.logoErr != nil {
		return nil, f.logoErr
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func TestQuotesIssuerReaderKeepsGoingWithoutLogo(t *testing.T) {
	reader := NewQuotesIssuerReader(fakeCompanies{}, logger.Discard())
	got, err := reader.GetIssuer(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, "Martin BTP", got.Name)
	require.Equal(t, "12345678900011", got.SIRET)
	require.Len(t, got.Logo, 4)

	reader = NewQuotesIssuerReader(fakeCompanies{logoErr: errors.New("bucket gone")}, logger.Discard())
	got, err = reader.GetIssuer(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, got.Logo)
	require.Equal(t, "FR76", got.IBAN)
}
