package fire

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"firewatch.xyz/alert-dispatch-service/pkg/common"
	"firewatch.xyz/alert-dispatch-service/pkg/models"
)

// getPolicy returns the stored dispatch policy, or the defaults when none was
// saved yet.
func getPolicy(conn *gorm.DB) (*models.DispatchPolicy, error) {
	var policy models.DispatchPolicy
	err := conn.First(&policy, models.DispatchPolicyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		policy = models.DefaultDispatchPolicy()
		return &policy, nil
	}
	if err != nil {
		return nil, storageError("load dispatch policy", err)
	}
	return &policy, nil
}

func (f *Fire) upsertPolicy(input *models.DispatchPolicy) error {
	logger := common.GetCoreLogger(common.LoggerCategoryFirePolicy)

	policy := models.DispatchPolicy{
		ID:               models.DispatchPolicyID,
		StationCount:     input.StationCount,
		ResponseFallback: input.ResponseFallback,
	}
	if policy.ResponseFallback == "" {
		policy.ResponseFallback = models.ResponseFallbackZero
	}
	if policy.StationCount <= 0 {
		return validationError("station_count must be positive, got %d", policy.StationCount)
	}
	if !policy.ResponseFallback.Valid() {
		return validationError("unknown response_fallback %q", policy.ResponseFallback)
	}

	logger.Info("Received dispatch policy", zap.Reflect("policy", policy))

	err := f.Db.Conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&policy).Error
	if err != nil {
		return storageError("upsert dispatch policy", err)
	}

	logger.Info("Upserted dispatch policy", zap.Reflect("policy", policy))
	*input = policy
	return nil
}

type IPolicyImpl struct {
	fire *Fire
}

func (ip *IPolicyImpl) GetPolicy() (*models.DispatchPolicy, error) {
	return getPolicy(ip.fire.Db.Conn)
}

func (ip *IPolicyImpl) UpsertPolicy(input *models.DispatchPolicy) error {
	return ip.fire.upsertPolicy(input)
}

func (f *Fire) GetIPolicy() IPolicy {
	return &IPolicyImpl{fire: f}
}
