package aggregation

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ClassAirQuality = "air-quality"
	ClassTraffic    = "traffic"

	smartDataModelsPrefix = "https://smartdatamodels.org/"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// FieldSpec describes one measurement of a sensor class.
type FieldSpec struct {
	Name     string   `yaml:"name"`     // canonical name; key in stored readings
	Keys     []string `yaml:"keys"`     // entity attribute keys tried in order
	Operator string   `yaml:"operator"` // mean | sum
	Output   string   `yaml:"output"`   // statistics key, e.g. avgPm25
	Integer  bool     `yaml:"integer"`  // render the aggregate rounded to an integer
}

// SensorClass defines the fixed shape of readings of one sensor kind and how
// each field aggregates. Classes are loaded once at startup.
type SensorClass struct {
	Name           string      `yaml:"name"`
	Route          string      `yaml:"route"`           // URL segment, e.g. "air"
	Topic          string      `yaml:"topic"`           // live publish topic
	ResultIDKey    string      `yaml:"result_id_key"`   // id key in statistics results
	RequiresDevice bool        `yaml:"requires_device"` // reject unknown devices with ErrNotFound
	Fields         []FieldSpec `yaml:"fields"`
	Fingerprint    string      `yaml:"-"` // SHA-256 of the YAML file; empty for built-ins
}

// FieldNames returns the canonical field names in class order.
func (c SensorClass) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

func (c *SensorClass) applyDefaults() {
	if c.Route == "" {
		c.Route = c.Name
	}
	if c.Topic == "" {
		c.Topic = "/topic/" + c.Name
	}
	if c.ResultIDKey == "" {
		c.ResultIDKey = "sensorId"
	}
	for i := range c.Fields {
		f := &c.Fields[i]
		if len(f.Keys) == 0 {
			f.Keys = []string{f.Name, smartDataModelsPrefix + f.Name}
		}
		if f.Output == "" {
			f.Output = defaultOutputKey(f.Name, f.Operator)
		}
	}
}

// Validate checks the class definition. Field names end up inside SQL, so they
// are restricted to identifier characters.
func (c SensorClass) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("class name must not be empty")
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("class %q: at least one field is required", c.Name)
	}
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if !fieldNamePattern.MatchString(f.Name) {
			return fmt.Errorf("class %q: invalid field name %q", c.Name, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("class %q: duplicate field %q", c.Name, f.Name)
		}
		seen[f.Name] = true
		if !ValidOperator(f.Operator) {
			return fmt.Errorf("class %q: field %q has unsupported operator %q", c.Name, f.Name, f.Operator)
		}
	}
	return nil
}

func defaultOutputKey(name, op string) string {
	prefix := "avg"
	if op == OpSum {
		prefix = "total"
	}
	return prefix + strings.ToUpper(name[:1]) + name[1:]
}

func meanField(name string) FieldSpec {
	return FieldSpec{Name: name, Operator: OpMean}
}

// BuiltinClasses returns the air-quality and traffic classes.
func BuiltinClasses() []SensorClass {
	classes := []SensorClass{
		{
			Name:        ClassAirQuality,
			Route:       "air",
			Topic:       "/topic/air-quality",
			ResultIDKey: "sensorId",
			Fields: []FieldSpec{
				meanField("pm1"),
				meanField("pm10"),
				meanField("pm25"),
				meanField("co2"),
				meanField("o3"),
				meanField("temperature"),
				meanField("relativeHumidity"),
			},
		},
		{
			Name:        ClassTraffic,
			Route:       "traffic",
			Topic:       "/topic/traffic",
			ResultIDKey: "refDevice",
			Fields: []FieldSpec{
				{Name: "intensity", Operator: OpSum, Integer: true},
				{
					Name: "averageSpeed",
					Keys: []string{
						"averageSpeed",
						"averageVehicleSpeed",
						smartDataModelsPrefix + "averageVehicleSpeed",
					},
					Operator: OpMean,
					Output:   "avgSpeed",
				},
			},
		},
	}
	for i := range classes {
		classes[i].applyDefaults()
	}
	return classes
}

// Catalog holds the configured sensor classes, addressable by name or route.
type Catalog struct {
	byName  map[string]SensorClass
	byRoute map[string]string
}

// NewCatalog builds a catalog. Later classes replace earlier ones with the same name.
func NewCatalog(classes ...SensorClass) (*Catalog, error) {
	c := &Catalog{
		byName:  make(map[string]SensorClass, len(classes)),
		byRoute: make(map[string]string, len(classes)),
	}
	for _, class := range classes {
		if err := c.put(class); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) put(class SensorClass) error {
	class.applyDefaults()
	if err := class.Validate(); err != nil {
		return err
	}
	if prev, ok := c.byName[class.Name]; ok {
		delete(c.byRoute, prev.Route)
	}
	if owner, ok := c.byRoute[class.Route]; ok && owner != class.Name {
		return fmt.Errorf("class %q: route %q already used by class %q", class.Name, class.Route, owner)
	}
	c.byName[class.Name] = class
	c.byRoute[class.Route] = class.Name
	return nil
}

// Get returns the class with the given name.
func (c *Catalog) Get(name string) (SensorClass, bool) {
	class, ok := c.byName[name]
	return class, ok
}

// ByRoute returns the class served under the given URL segment.
func (c *Catalog) ByRoute(route string) (SensorClass, bool) {
	name, ok := c.byRoute[route]
	if !ok {
		return SensorClass{}, false
	}
	return c.byName[name], true
}

// All returns every class sorted by name.
func (c *Catalog) All() []SensorClass {
	out := make([]SensorClass, 0, len(c.byName))
	for _, class := range c.byName {
		out = append(out, class)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadCatalog starts from the built-in classes and overlays *.yaml files from dir.
// Each file holds exactly one class. A missing dir is valid (built-ins only).
func LoadCatalog(dir string) (*Catalog, error) {
	catalog, err := NewCatalog(BuiltinClasses()...)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return catalog, nil
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return catalog, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sensor class dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sensor class path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading sensor class dir: %w", err)
	}

	loaded := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading class file %s: %w", path, err)
		}

		var class SensorClass
		if err := yaml.Unmarshal(data, &class); err != nil {
			return nil, fmt.Errorf("parsing class file %s: %w", path, err)
		}
		if class.Name == "" {
			continue // empty / comment-only file
		}
		if other, dup := loaded[class.Name]; dup {
			return nil, fmt.Errorf("class %q: defined in both %s and %s", class.Name, other, path)
		}
		loaded[class.Name] = path

		class.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))
		if err := catalog.put(class); err != nil {
			return nil, fmt.Errorf("class file %s: %w", path, err)
		}
	}
	return catalog, nil
}
