// Package config provides the configuration of a pipeline run.
//
// Values come from three layers applied in order: the `default` struct tags, an optional YAML
// file, then the environment variables named by the `env` tags. The result is validated before
// use so that a misconfiguration fails before anything is downloaded.
package config

import "time"

// Final section parsing rules.
const (
	// FinalSectionSame parses the last section of a file with the same header rule as the others.
	FinalSectionSame = "same"
	// FinalSectionInfer always treats the first line of the last section as a header.
	FinalSectionInfer = "infer"
)

// Decompression back-ends.
const (
	BackendExec = "exec"
	BackendGzip = "gzip"
)

// Config holds the whole configuration of a run.
type Config struct {
	// Root is the directory every dataset tree is created under.
	Root string `yaml:"root" env:"GEOPIPE_ROOT" default:"data"`

	// Dataset is the accession of the dataset to process.
	Dataset string `yaml:"dataset" env:"GEOPIPE_DATASET" default:"GSE68849"`

	// Workers bounds the number of files processed at once inside a stage. 1 keeps stages sequential.
	Workers int `yaml:"workers" env:"GEOPIPE_WORKERS" default:"1"`

	Fetch      FetchConfig      `yaml:"fetch"`
	Decompress DecompressConfig `yaml:"decompress"`
	Schema     SchemaConfig     `yaml:"schema"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// FetchConfig holds the download settings.
type FetchConfig struct {
	Host string `yaml:"host" env:"GEOPIPE_FETCH_HOST" default:"www.ncbi.nlm.nih.gov"`

	// URLTemplate is expanded by replacing {host} and {dataset}.
	URLTemplate string `yaml:"url_template" env:"GEOPIPE_FETCH_URL_TEMPLATE" default:"https://{host}/geo/download/?acc={dataset}&format=file"`

	// Timeout bounds the whole request. 0 waits forever.
	Timeout time.Duration `yaml:"timeout" env:"GEOPIPE_FETCH_TIMEOUT" default:"0s"`
}

// DecompressConfig holds the settings of the layer decompression stage.
type DecompressConfig struct {
	// Backend is "exec" to run Command once per member, or "gzip" to decompress in process.
	Backend string `yaml:"backend" env:"GEOPIPE_DECOMPRESS_BACKEND" default:"exec"`

	// Command receives the compressed file as its last argument and writes to stdout.
	Command []string `yaml:"command" env:"GEOPIPE_DECOMPRESS_COMMAND" default:"gunzip,-c"`

	// Suffix selects the archive members to decompress.
	Suffix string `yaml:"suffix" env:"GEOPIPE_DECOMPRESS_SUFFIX" default:".gz"`
}

// SchemaConfig describes the layout of the decompressed text files and of the derived table.
type SchemaConfig struct {
	// Sections are the labels every decompressed file must contain.
	Sections []string `yaml:"sections" env:"GEOPIPE_SCHEMA_SECTIONS" default:"Columns,Controls,Heading,Probes"`

	// HeaderlessSections are parsed without a header row.
	HeaderlessSections []string `yaml:"headerless_sections" env:"GEOPIPE_SCHEMA_HEADERLESS_SECTIONS" default:"Heading"`

	// FinalSection is the header rule of the last section of a file: "same" or "infer".
	FinalSection string `yaml:"final_section" env:"GEOPIPE_SCHEMA_FINAL_SECTION" default:"same"`

	// TabularSuffix is the extension of the table files. Anything else is an intermediate artifact.
	TabularSuffix string `yaml:"tabular_suffix" env:"GEOPIPE_SCHEMA_TABULAR_SUFFIX" default:".tsv"`

	Trim TrimConfig `yaml:"trim"`
}

// TrimConfig describes the derived table.
type TrimConfig struct {
	// Table is the section the columns are dropped from.
	Table string `yaml:"table" env:"GEOPIPE_TRIM_TABLE" default:"Probes"`

	// Suffix is appended to the table name to name the derived table.
	Suffix string `yaml:"suffix" env:"GEOPIPE_TRIM_SUFFIX" default:"_trimmed"`

	// Drop lists the columns removed from the table. All of them must exist.
	Drop []string `yaml:"drop" env:"GEOPIPE_TRIM_DROP" default:"Definition,Ontology_Component,Ontology_Process,Ontology_Function,Synonyms,Obsolete_Probe_Id,Probe_Sequence"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"GEOPIPE_LOG_LEVEL" default:"info"`

	// Format is the output format: text, json (default: text)
	Format string `yaml:"format" env:"GEOPIPE_LOG_FORMAT" default:"text"`
}

// IsHeaderless reports whether the section is parsed without a header row.
func (s SchemaConfig) IsHeaderless(section string) bool {
	for _, name := range s.HeaderlessSections {
		if name == section {
			return true
		}
	}

	return false
}
