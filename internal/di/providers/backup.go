package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/readalongapp/readalong-engine/internal/backup"
	"github.com/readalongapp/readalong-engine/internal/config"
	"github.com/readalongapp/readalong-engine/internal/logger"
)

// EngineVersion is stamped into backup manifests.
const EngineVersion = "1.0.0"

// ProvideBackup provides the backup service. Archives land under the
// data directory next to the store they snapshot.
func ProvideBackup(i do.Injector) (*backup.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*StoreHandle](i)

	backupDir := filepath.Join(cfg.Data.BasePath, "backups")
	return backup.New(db, backupDir, EngineVersion, log), nil
}
