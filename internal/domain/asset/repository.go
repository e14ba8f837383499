package asset

import (
	"github.com/xiebiao/mediastore/internal/domain/repository"
)

// DigitalAssetRepository 数字资产仓储
type DigitalAssetRepository = repository.Repository[DigitalAsset]
