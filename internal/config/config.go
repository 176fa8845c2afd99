package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"worldinv/internal/inventory"
	"worldinv/internal/persistence/region"
)

type Config struct {
	Types      TypesSpec          `yaml:"types"`
	Items      ItemsSpec          `yaml:"items"`
	Dimensions []region.Dimension `yaml:"dimensions"`
	Output     OutputSpec         `yaml:"output"`

	// Workers is the number of parallel scan workers; 0 means one per CPU.
	Workers int `yaml:"workers"`
}

type TypesSpec struct {
	Containers   []string `yaml:"containers"`
	Mobs         []string `yaml:"mobs"`
	ItemsField   []string `yaml:"items_field"`
	ArmorMounts  []string `yaml:"armor_mounts"`
	SaddleMounts []string `yaml:"saddle_mounts"`
}

type ItemsSpec struct {
	Tools         []string `yaml:"tools"`
	Armor         []string `yaml:"armor"`
	RequireDamage *bool    `yaml:"require_damage"`
}

type OutputSpec struct {
	Listing string `yaml:"listing"`
	Totals  string `yaml:"totals"`
}

func Defaults() Config {
	r := inventory.DefaultRules()
	requireDamage := r.RequireDamage
	return Config{
		Types: TypesSpec{
			Containers:   r.Containers,
			Mobs:         r.Mobs,
			ItemsField:   r.ItemsField,
			ArmorMounts:  r.ArmorMounts,
			SaddleMounts: r.SaddleMounts,
		},
		Items: ItemsSpec{
			Tools:         r.Tools,
			Armor:         r.Armor,
			RequireDamage: &requireDamage,
		},
		Dimensions: region.DefaultDimensions(),
		Output: OutputSpec{
			Listing: "inv_contents.csv",
			Totals:  "item_totals.csv",
		},
	}
}

// Load reads a YAML config on top of the defaults. Lists present in the
// file replace the default lists. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Normalize() {
	c.Types.Containers = normalizeNames(c.Types.Containers)
	c.Types.Mobs = normalizeNames(c.Types.Mobs)
	c.Types.ItemsField = normalizeNames(c.Types.ItemsField)
	c.Types.ArmorMounts = normalizeNames(c.Types.ArmorMounts)
	c.Types.SaddleMounts = normalizeNames(c.Types.SaddleMounts)
	c.Items.Tools = normalizeNames(c.Items.Tools)
	c.Items.Armor = normalizeNames(c.Items.Armor)

	c.Output.Listing = strings.TrimSpace(c.Output.Listing)
	c.Output.Totals = strings.TrimSpace(c.Output.Totals)
	for i := range c.Dimensions {
		c.Dimensions[i].Name = strings.TrimSpace(c.Dimensions[i].Name)
		c.Dimensions[i].Dir = strings.TrimSpace(c.Dimensions[i].Dir)
		if c.Dimensions[i].Dir == "" {
			c.Dimensions[i].Dir = "."
		}
	}
}

func normalizeNames(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, n := range in {
		n = inventory.NormalizeName(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Output.Listing == "" || c.Output.Totals == "" {
		return fmt.Errorf("output file names must not be empty")
	}
	if c.Output.Listing == c.Output.Totals {
		return fmt.Errorf("listing and totals share the file name %q", c.Output.Totals)
	}
	if len(c.Dimensions) == 0 {
		return fmt.Errorf("no dimensions configured")
	}
	seen := map[string]bool{}
	for _, d := range c.Dimensions {
		if d.Name == "" {
			return fmt.Errorf("dimension with empty name (dir %q)", d.Dir)
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate dimension %q", d.Name)
		}
		seen[d.Name] = true
	}
	_, err := c.Rules().Compile()
	return err
}

// Rules converts the type and item lists for the inventory package.
func (c Config) Rules() inventory.Rules {
	requireDamage := true
	if c.Items.RequireDamage != nil {
		requireDamage = *c.Items.RequireDamage
	}
	return inventory.Rules{
		Containers:    c.Types.Containers,
		Mobs:          c.Types.Mobs,
		ItemsField:    c.Types.ItemsField,
		ArmorMounts:   c.Types.ArmorMounts,
		SaddleMounts:  c.Types.SaddleMounts,
		Tools:         c.Items.Tools,
		Armor:         c.Items.Armor,
		RequireDamage: requireDamage,
	}
}
