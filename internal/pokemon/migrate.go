package pokemon

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the catalog schema using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "pokemon.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying pokemon schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&Pokemon{}, &PokemonType{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("pokemon schema migration failed")
		}
		return eris.Wrap(err, "auto migrating pokemon schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("pokemon schema migration complete")
	}

	return nil
}
