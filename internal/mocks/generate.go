package mocks

//go:generate mockery --name ReadingStore --srcpkg github.com/xcity-lab/telemetry/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name DeviceDirectory --srcpkg github.com/xcity-lab/telemetry/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name Publisher --srcpkg github.com/xcity-lab/telemetry/internal/publish --output ./publish --outpkg publishmocks --with-expecter
