package eventbuilder

import (
	"fmt"

	sqlx "github.com/jmoiron/sqlx"
)

// OpenDatabase connects to the local SQLite copy when one is configured and
// to the MySQL server otherwise.
func OpenDatabase(config Configuration) (*sqlx.DB, error) {
	if config.LocalDB != "" {
		return OpenLocalDatabase(config.LocalDB)
	}
	return ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
}

// LoadRunTables returns the wiring and, unless disabled, the calibration of
// the configured run. With no_db they come from the settings files, or the
// default ISS wiring when no file is given; db may then be nil. A nil
// Calibrator means raw values are used.
func LoadRunTables(db *sqlx.DB, config Configuration) (*Wiring, Calibrator, error) {
	if config.NoDB {
		wiring := DefaultWiring()
		if config.SettingsFile != "" {
			var err error
			wiring, err = LoadWiringFile(config.SettingsFile)
			if err != nil {
				return nil, nil, fmt.Errorf("error loading settings file: %w", err)
			}
		}
		if config.NoCalibration || config.CalibrationFile == "" {
			return wiring, nil, nil
		}
		table, err := LoadCalibrationFile(config.CalibrationFile)
		if err != nil {
			return nil, nil, fmt.Errorf("error loading calibration file: %w", err)
		}
		return wiring, table, nil
	}

	if db == nil {
		return nil, nil, fmt.Errorf("no database connection")
	}
	wiring, err := LoadWiring(db, config.RunNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting wiring from database: %w", err)
	}
	if config.NoCalibration {
		return wiring, nil, nil
	}
	table, err := LoadCalibration(db, config.RunNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting calibration from database: %w", err)
	}
	return wiring, table, nil
}
