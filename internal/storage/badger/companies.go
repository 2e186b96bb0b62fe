package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// CompanyStorage implements interfaces.CompanyStorage for Badger.
type CompanyStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewCompanyStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CompanyStorage {
	return &CompanyStorage{db: db, logger: logger}
}

func (s *CompanyStorage) SaveCompany(ctx context.Context, company *models.Company) error {
	if company.ID == "" {
		return fmt.Errorf("company ID is required")
	}
	if err := s.db.Store().Upsert(company.ID, company); err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

func (s *CompanyStorage) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	var c models.Company
	if err := s.db.Store().Get(id, &c); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

func (s *CompanyStorage) GetCompanyByName(ctx context.Context, normalizedName string) (*models.Company, error) {
	var companies []models.Company
	if err := s.db.Store().Find(&companies, badgerhold.Where("NormalizedName").Eq(normalizedName).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to find company by name: %w", err)
	}
	if len(companies) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &companies[0], nil
}

func (s *CompanyStorage) UpdateCompany(ctx context.Context, company *models.Company) error {
	var current models.Company
	if err := s.db.Store().Get(company.ID, &current); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to load company for update: %w", err)
	}
	if current.AnalysisStatus != company.AnalysisStatus && !models.CanTransitionCompany(current.AnalysisStatus, company.AnalysisStatus) {
		return fmt.Errorf("illegal company status transition %s -> %s for company %s", current.AnalysisStatus, company.AnalysisStatus, company.ID)
	}
	company.UpdatedAt = time.Now()
	return s.SaveCompany(ctx, company)
}

func (s *CompanyStorage) ListCompanies(ctx context.Context, status models.AnalysisStatus) ([]*models.Company, error) {
	query := badgerhold.Where("ID").Ne("")
	if status != "" {
		query = query.And("AnalysisStatus").Eq(status)
	}
	var companies []models.Company
	if err := s.db.Store().Find(&companies, query.SortBy("UpdatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	result := make([]*models.Company, len(companies))
	for i := range companies {
		result[i] = &companies[i]
	}
	return result, nil
}

func (s *CompanyStorage) DeleteCompany(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Company{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return nil
}
