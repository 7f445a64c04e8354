package config

import "github.com/spf13/viper"

// SetDefaults registers the default of every known key.
func SetDefaults(v *viper.Viper) {
	// Discovery and batch
	v.SetDefault("recursive", false)
	v.SetDefault("extensions", []string{".fast5"})
	v.SetDefault("workers", 1)

	v.SetDefault("log.verbosity", 0)
	v.SetDefault("log.json", false)

	// Multi-read files are sampled unless all_reads is set.
	v.SetDefault("extract.all_reads", false)
	v.SetDefault("extract.max_reads", 3)
	v.SetDefault("extract.header", true)

	v.SetDefault("writer.sample_rate", 4000.0)
	v.SetDefault("writer.flow_cell_id", "FAKE00001")
	v.SetDefault("writer.device_id", "MN00000")
	v.SetDefault("writer.calibration.offset", 0.0)
	v.SetDefault("writer.calibration.range", 1400.0)
	v.SetDefault("writer.calibration.digitisation", 8192.0)
	v.SetDefault("writer.compression", "none")
	v.SetDefault("writer.compression_level", 0)

	v.SetDefault("report.format", "text")
}
