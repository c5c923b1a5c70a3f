package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"devis_backend/internal/adapters/storage"
	"devis_backend/internal/company/password"
	"devis_backend/internal/company/repository"
	"devis_backend/internal/company/transport"
	"devis_backend/internal/events"
	"devis_backend/platform/apperr"
	"devis_backend/platform/config"
	"devis_backend/platform/httpkit"
	"devis_backend/platform/logger"
	"devis_backend/platform/phone"
	"devis_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgWrongPassword      = "Mot de passe incorrect"
	msgStorageUnavailable = "stockage de fichiers non configuré"
	logoFolderFmt         = "%s/logo"
	tokenTypeBearer       = "Bearer"
	maxLogoBytes          = 5 << 20
)

type Service struct {
	repo       repository.Repository
	storage    storage.StorageService
	logoBucket string
	cfg        config.AuthServiceConfig
	eventBus   events.Bus
	log        *logger.Logger
	now        func() time.Time
}

// New builds the service. storageSvc may be nil when MinIO is not configured.
func New(repo repository.Repository, storageSvc storage.StorageService, logoBucket string, cfg config.AuthServiceConfig, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		storage:    storageSvc,
		logoBucket: logoBucket,
		cfg:        cfg,
		eventBus:   eventBus,
		log:        log,
		now:        time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (transport.AuthResponse, error) {
	name := sanitize.Text(req.Name)
	if name == "" {
		return transport.AuthResponse{}, apperr.Validation("nom d'entreprise requis")
	}

	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return transport.AuthResponse{}, apperr.Conflict("Cette entreprise existe déjà")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return transport.AuthResponse{}, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	company, err := s.repo.Create(ctx, repository.CreateParams{
		ID:           uuid.New(),
		Name:         name,
		LegalForm:    sanitize.Text(req.LegalForm),
		SIRET:        strings.ReplaceAll(sanitize.Text(req.SIRET), " ", ""),
		VATNumber:    strings.ToUpper(strings.ReplaceAll(sanitize.Text(req.VATNumber), " ", "")),
		Address:      sanitize.Multiline(req.Address),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        phone.NormalizeE164(req.Phone),
		IBAN:         strings.ToUpper(strings.ReplaceAll(sanitize.Text(req.IBAN), " ", "")),
		BIC:          strings.ToUpper(sanitize.Text(req.BIC)),
		PasswordHash: hash,
	})
	if err != nil {
		return transport.AuthResponse{}, err
	}

	s.log.AuthEvent("register", company.Name, true, "")
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.CompanyRegistered{
			BaseEvent: events.NewBaseEvent(),
			CompanyID: company.ID,
			Name:      company.Name,
			Email:     company.Email,
		})
	}

	return s.issue(ctx, company)
}

func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.AuthResponse, error) {
	company, err := s.repo.GetByName(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.AuthEvent("login", req.Name, false, "unknown company")
		}
		return transport.AuthResponse{}, err
	}

	if company.PasswordHash == "" || password.Compare(company.PasswordHash, req.Password) != nil {
		s.log.AuthEvent("login", company.Name, false, "wrong password")
		return transport.AuthResponse{}, apperr.Unauthorized(msgWrongPassword)
	}

	s.log.AuthEvent("login", company.Name, true, "")
	return s.issue(ctx, company)
}

func (s *Service) GetMe(ctx context.Context, companyID uuid.UUID) (transport.CompanyResponse, error) {
	company, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return s.toResponse(ctx, company), nil
}

func (s *Service) UpdateMe(ctx context.Context, companyID uuid.UUID, req transport.UpdateCompanyRequest) (transport.CompanyResponse, error) {
	params := repository.UpdateParams{
		ID:        companyID,
		LegalForm: sanitize.TextPtr(req.LegalForm),
		SIRET:     compact(req.SIRET, false),
		VATNumber: compact(req.VATNumber, true),
		Address:   multilinePtr(req.Address),
		Email:     lowerPtr(req.Email),
		IBAN:      compact(req.IBAN, true),
		BIC:       compact(req.BIC, true),
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	company, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return s.toResponse(ctx, company), nil
}

// UploadLogo stores a PNG or JPEG and records its object key.
func (s *Service) UploadLogo(ctx context.Context, companyID uuid.UUID, fileName, contentType string, size int64, r io.Reader) (transport.CompanyResponse, error) {
	if s.storage == nil {
		return transport.CompanyResponse{}, apperr.Unavailable(msgStorageUnavailable)
	}
	if err := storage.ValidateLogoContentType(contentType); err != nil {
		return transport.CompanyResponse{}, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(size); err != nil {
		return transport.CompanyResponse{}, apperr.Validation(err.Error())
	}

	current, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return transport.CompanyResponse{}, err
	}

	key, err := s.storage.UploadFile(ctx, s.logoBucket, fmt.Sprintf(logoFolderFmt, companyID), fileName, storage.NormalizeContentType(contentType), r, size)
	if err != nil {
		return transport.CompanyResponse{}, fmt.Errorf("upload logo: %w", err)
	}

	company, err := s.repo.SetLogoKey(ctx, companyID, key)
	if err != nil {
		return transport.CompanyResponse{}, err
	}

	if current.LogoKey != "" && current.LogoKey != key {
		if err := s.storage.DeleteObject(ctx, s.logoBucket, current.LogoKey); err != nil {
			s.log.Warn("old logo cleanup failed", "companyId", companyID, "key", current.LogoKey, "error", err)
		}
	}
	return s.toResponse(ctx, company), nil
}

// Profile returns the raw company record for other modules.
func (s *Service) Profile(ctx context.Context, companyID uuid.UUID) (repository.Company, error) {
	return s.repo.GetByID(ctx, companyID)
}

// LogoBytes downloads the company logo; nil without error when there is none.
func (s *Service) LogoBytes(ctx context.Context, company repository.Company) ([]byte, error) {
	if company.LogoKey == "" || s.storage == nil {
		return nil, nil
	}
	return storage.ReadObject(ctx, s.storage, s.logoBucket, company.LogoKey, maxLogoBytes)
}

func (s *Service) issue(ctx context.Context, company repository.Company) (transport.AuthResponse, error) {
	token, expiresAt, err := httpkit.NewAccessToken(s.cfg.GetJWTAccessSecret(), company.ID, company.Name, s.cfg.GetAccessTokenTTL(), s.now())
	if err != nil {
		return transport.AuthResponse{}, fmt.Errorf("sign access token: %w", err)
	}
	return transport.AuthResponse{
		Company:     s.toResponse(ctx, company),
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *Service) toResponse(ctx context.Context, c repository.Company) transport.CompanyResponse {
	resp := transport.CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		LegalForm: c.LegalForm,
		SIRET:     c.SIRET,
		VATNumber: c.VATNumber,
		Address:   c.Address,
		Email:     c.Email,
		Phone:     c.Phone,
		LogoKey:   c.LogoKey,
		IBAN:      c.IBAN,
		BIC:       c.BIC,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.LogoKey != "" && s.storage != nil {
		if url, err := s.storage.GenerateDownloadURL(ctx, s.logoBucket, c.LogoKey); err == nil {
			resp.LogoURL = url.URL
		}
	}
	return resp
}

func compact(v *string, upper bool) *string {
	if v == nil {
		return nil
	}
	out := strings.ReplaceAll(sanitize.Text(*v), " ", "")
	if upper {
		out = strings.ToUpper(out)
	}
	return &out
}

func multilinePtr(v *string) *string {
	if v == nil {
		return nil
	}
	out := sanitize.Multiline(*v)
	return &out
}

func lowerPtr(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.ToLower(strings.TrimSpace(*v))
	return &out
}
