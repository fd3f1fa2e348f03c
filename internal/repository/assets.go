package repository

import (
	"context"
	"time"

	"github.com/rongwang/cgtracker/internal/models"
)

const assetSelect = `
	SELECT cg.id, cg.code, cg.name, cg.description, cg.status, cg.acquisition_date,
		cg.category_id, c.name AS category_name
	FROM capital_goods cg
	LEFT JOIN categories c ON cg.category_id = c.id
`

// latestIssueCondition matches the latest Issue entry t of the asset cg,
// ordered by transaction id.
const latestIssueCondition = `
	t.transaction_type = 'Issue'
	AND t.id = (
		SELECT MAX(t2.id) FROM cg_transactions t2
		WHERE t2.asset_id = cg.id AND t2.transaction_type = 'Issue'
	)
`

// Capital good repository methods
func (r *SQLRepository) CreateAsset(ctx context.Context, asset *models.CapitalGood) error {
	if asset.AcquisitionDate.IsZero() {
		asset.AcquisitionDate = time.Now().UTC()
	}
	if asset.Status == "" {
		asset.Status = models.StatusAvailable
	}

	id, err := r.insert(ctx, `
		INSERT INTO capital_goods (code, name, description, status, acquisition_date, category_id)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		asset.Code, asset.Name, asset.Description, asset.Status, asset.AcquisitionDate, asset.CategoryID)
	if err != nil {
		return err
	}

	asset.ID = id
	return nil
}

func (r *SQLRepository) GetAsset(ctx context.Context, id int64) (*models.CapitalGood, error) {
	var asset models.CapitalGood
	found, err := r.get(ctx, &asset, assetSelect+` WHERE cg.id = ?`, id)
	if err != nil || !found {
		return nil, err
	}
	return &asset, nil
}

func (r *SQLRepository) GetAssetByCode(ctx context.Context, code string) (*models.CapitalGood, error) {
	var asset models.CapitalGood
	found, err := r.get(ctx, &asset, assetSelect+` WHERE cg.code = ?`, code)
	if err != nil || !found {
		return nil, err
	}
	return &asset, nil
}

func (r *SQLRepository) ListAssets(ctx context.Context, filter models.AssetFilter) ([]models.CapitalGood, error) {
	query := assetSelect + ` WHERE 1=1`
	args := []interface{}{}

	if filter.Search != "" {
		query += ` AND (LOWER(cg.code) LIKE LOWER(?) OR LOWER(cg.name) LIKE LOWER(?))`
		args = append(args, likePattern(filter.Search), likePattern(filter.Search))
	}
	if filter.CategoryID != nil {
		query += ` AND cg.category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	if filter.Status != "" {
		query += ` AND cg.status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY cg.name, cg.code, cg.id`

	assets := []models.CapitalGood{}
	if err := r.selectAll(ctx, &assets, query, args...); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *SQLRepository) UpdateAsset(ctx context.Context, asset *models.CapitalGood) error {
	_, err := r.exec(ctx,
		`UPDATE capital_goods SET code = ?, name = ?, description = ?, category_id = ? WHERE id = ?`,
		asset.Code, asset.Name, asset.Description, asset.CategoryID, asset.ID)
	return err
}

func (r *SQLRepository) SetAssetStatus(ctx context.Context, id int64, status models.AssetStatus) error {
	_, err := r.exec(ctx, `UPDATE capital_goods SET status = ? WHERE id = ?`, status, id)
	return err
}

func (r *SQLRepository) DeleteAsset(ctx context.Context, id int64) error {
	_, err := r.exec(ctx, `DELETE FROM capital_goods WHERE id = ?`, id)
	return err
}

// AssetsIssuedTo returns the Issued assets whose latest Issue entry names the employee
func (r *SQLRepository) AssetsIssuedTo(ctx context.Context, employeeID int64) ([]models.CapitalGood, error) {
	query := assetSelect + `
		JOIN cg_transactions t ON t.asset_id = cg.id
		WHERE cg.status = 'Issued' AND t.employee_id = ? AND ` + latestIssueCondition + `
		ORDER BY cg.name, cg.code, cg.id`

	assets := []models.CapitalGood{}
	if err := r.selectAll(ctx, &assets, query, employeeID); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *SQLRepository) CountAssets(ctx context.Context) (*models.AssetCounts, error) {
	rows := []struct {
		Status models.AssetStatus `db:"status"`
		N      int                `db:"n"`
	}{}
	if err := r.selectAll(ctx, &rows, `SELECT status, COUNT(*) AS n FROM capital_goods GROUP BY status`); err != nil {
		return nil, err
	}

	counts := &models.AssetCounts{}
	for _, row := range rows {
		counts.Total += row.N
		switch row.Status {
		case models.StatusIssued:
			counts.Issued = row.N
		case models.StatusAvailable:
			counts.Available = row.N
		}
	}
	return counts, nil
}
