package database

// SQL schemas for the reading archive

const (
	// TelemetryReadingsTableSQL creates the telemetry_readings table, one row
	// per decoded record
	TelemetryReadingsTableSQL = `
		CREATE TABLE IF NOT EXISTS telemetry_readings (
			timestamp DateTime64(3),
			source String,
			device_id Int32,
			freq_1 Float64,
			loudness_1 Float32,
			freq_2 Float64,
			loudness_2 Float32,
			freq_3 Float64,
			loudness_3 Float32,
			freq_4 Float64,
			loudness_4 Float32,
			loudest UInt8
		) ENGINE = MergeTree()
		ORDER BY (device_id, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// DeviceRegistryTableSQL creates the device_registry table, keyed by
	// sender hardware address
	DeviceRegistryTableSQL = `
		CREATE TABLE IF NOT EXISTS device_registry (
			address String,
			device_id Int32,
			registered_at DateTime64(3),
			last_seen DateTime64(3),
			is_active Bool
		) ENGINE = ReplacingMergeTree(last_seen)
		ORDER BY address
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		TelemetryReadingsTableSQL,
		DeviceRegistryTableSQL,
	}
}
