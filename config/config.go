// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/klauspost/cpuid"
	logging "github.com/op/go-logging"
	"github.com/spf13/viper"
)

var log = logging.MustGetLogger("config")

const (
	// AlignAbort stops the whole run when one family fails to align.
	AlignAbort = "abort"

	// AlignSkip logs the failing family and carries on with the rest.
	AlignSkip = "skip"

	// TiesPlus assigns the plus strand to loci with equal strand tallies.
	TiesPlus = "plus"

	// TiesExclude drops loci with equal strand tallies.
	TiesExclude = "exclude"
)

// ToolsConfig holds the executables that rep shells out to.
type ToolsConfig struct {
	// makeblastdb for building the nucleotide database of the assembly
	Makeblastdb string `mapstructure:"makeblastdb"`

	// blastn for searching the repeat library against the assembly
	Blastn string `mapstructure:"blastn"`

	// mafft for aligning each family's extracted loci
	Mafft string `mapstructure:"mafft"`

	// BuildDatabase from the RepeatModeler distribution
	BuildDatabase string `mapstructure:"build-database"`

	// RepeatModeler executable
	RepeatModeler string `mapstructure:"repeatmodeler"`

	// RepeatMasker executable
	RepeatMasker string `mapstructure:"repeatmasker"`

	// Timeout for a single external invocation. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout"`
}

// CurationConfig are the settings of the curation post-processing.
type CurationConfig struct {
	// bases added on both sides of a locus before extraction
	Flank int `mapstructure:"flank"`

	// hits closer than this on one subject are fused into one locus
	MaxHitDistance int `mapstructure:"max-hit-distance"`

	// below this majority fraction a locus' orientation is ambiguous
	MinFraction float64 `mapstructure:"min-fraction"`

	// hits kept per family after sorting by e-value
	TopHits int `mapstructure:"top-hits"`

	// expect value threshold passed to blastn
	EValue string `mapstructure:"evalue"`

	// number of families curated concurrently
	Workers int `mapstructure:"workers"`

	// what to do when the aligner fails on one family (abort or skip)
	AlignFailure string `mapstructure:"align-failure"`

	// how to orient loci with a 50/50 strand vote (plus or exclude)
	Ties string `mapstructure:"ties"`
}

// ThreadsConfig is the thread budget handed to each external tool.
type ThreadsConfig struct {
	Modeler int `mapstructure:"modeler"`
	Masker  int `mapstructure:"masker"`
	Search  int `mapstructure:"search"`
	Aligner int `mapstructure:"aligner"`
}

// Config is the root-level settings struct and is a mix
// of settings available in rep.yaml, REP_ environment variables
// and those available from the command line
type Config struct {
	Tools    ToolsConfig    `mapstructure:"tools"`
	Curation CurationConfig `mapstructure:"curation"`
	Threads  ThreadsConfig  `mapstructure:"threads"`
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	cores := Cores()

	v.SetDefault("tools.makeblastdb", "makeblastdb")
	v.SetDefault("tools.blastn", "blastn")
	v.SetDefault("tools.mafft", "mafft")
	v.SetDefault("tools.build-database", "BuildDatabase")
	v.SetDefault("tools.repeatmodeler", "RepeatModeler")
	v.SetDefault("tools.repeatmasker", "RepeatMasker")
	v.SetDefault("tools.timeout", time.Duration(0))

	v.SetDefault("curation.flank", 2000)
	v.SetDefault("curation.max-hit-distance", 10000)
	v.SetDefault("curation.min-fraction", 0.8)
	v.SetDefault("curation.top-hits", 20)
	v.SetDefault("curation.evalue", "10e-10")
	v.SetDefault("curation.workers", cores)
	v.SetDefault("curation.align-failure", AlignAbort)
	v.SetDefault("curation.ties", TiesPlus)

	v.SetDefault("threads.modeler", cores)
	v.SetDefault("threads.masker", cores)
	v.SetDefault("threads.search", cores)
	v.SetDefault("threads.aligner", cores)
}

// Cores is the number of physical cores, falling back to the logical
// count when cpuid cannot tell.
func Cores() int {
	if cpuid.CPU.PhysicalCores > 0 {
		return cpuid.CPU.PhysicalCores
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// New returns a new Config struct populated by
// Viper settings (either from the local rep.yaml)
// and/or command line arguments
func New() *Config {
	c, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	cur := c.Curation
	switch {
	case cur.Flank < 0:
		return fmt.Errorf("curation.flank must not be negative, got %d", cur.Flank)
	case cur.MaxHitDistance < 0:
		return fmt.Errorf("curation.max-hit-distance must not be negative, got %d", cur.MaxHitDistance)
	case cur.MinFraction < 0.5 || cur.MinFraction > 1:
		return fmt.Errorf("curation.min-fraction must be within [0.5, 1], got %g", cur.MinFraction)
	case cur.TopHits < 1:
		return fmt.Errorf("curation.top-hits must be positive, got %d", cur.TopHits)
	case cur.Workers < 1:
		return fmt.Errorf("curation.workers must be positive, got %d", cur.Workers)
	case c.Tools.Timeout < 0:
		return fmt.Errorf("tools.timeout must not be negative, got %s", c.Tools.Timeout)
	}

	switch strings.ToLower(cur.AlignFailure) {
	case AlignAbort, AlignSkip:
	default:
		return fmt.Errorf("curation.align-failure must be %q or %q, got %q", AlignAbort, AlignSkip, cur.AlignFailure)
	}

	switch strings.ToLower(cur.Ties) {
	case TiesPlus, TiesExclude:
	default:
		return fmt.Errorf("curation.ties must be %q or %q, got %q", TiesPlus, TiesExclude, cur.Ties)
	}

	return nil
}

// SkipFailedAlignments is true when the align-failure policy is "skip".
func (c *Config) SkipFailedAlignments() bool {
	return strings.EqualFold(c.Curation.AlignFailure, AlignSkip)
}

// ExcludeTies is true when loci with a 50/50 strand vote are dropped.
func (c *Config) ExcludeTies() bool {
	return strings.EqualFold(c.Curation.Ties, TiesExclude)
}

func init() {
	SetDefaults(viper.GetViper())
}
