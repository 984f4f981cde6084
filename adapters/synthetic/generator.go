// Package synthetic serves a reproducible employee attrition table as a
// dataset source, for demos and tests that must not touch the network.
package synthetic

import (
	"bytes"
	"encoding/csv"
	"math"
	"math/rand"
	"strconv"
)

// Scheme prefixes sources served by the generator instead of the network.
const Scheme = "synthetic://"

// Config configures the attrition data generator.
type Config struct {
	EmployeeCount int     `json:"employee_count"`
	LeftRate      float64 `json:"left_rate"`
	MissingRate   float64 `json:"missing_rate"` // share of Monthly Income cells left blank
	OutlierRate   float64 `json:"outlier_rate"` // share of ages pushed far above the fence
	Seed          int64   `json:"seed"`
}

// DefaultConfig returns sensible defaults for attrition data generation
func DefaultConfig() Config {
	return Config{
		EmployeeCount: 1000,
		LeftRate:      0.2,
		MissingRate:   0.01,
		OutlierRate:   0.005,
		Seed:          42,
	}
}

// Columns is the header the generator writes. The first column is the
// row identifier the loader drops.
var Columns = []string{
	"Employee ID", "Age", "Gender", "Department", "Job Role", "Years at Company",
	"Monthly Income", "Job Satisfaction", "Overtime", "Marital Status",
	"Distance from Home", "Attrition",
}

var (
	departments    = []string{"Sales", "Research & Development", "Human Resources", "Finance", "Technology"}
	jobRoles       = []string{"Manager", "Engineer", "Analyst", "Representative", "Director"}
	satisfaction   = []string{"Low", "Medium", "High", "Very High"}
	maritalStatus  = []string{"Single", "Married", "Divorced"}
	departmentRisk = map[string]float64{"Sales": 1.4, "Human Resources": 1.2, "Technology": 0.9}
)

// Generator produces a reproducible employee table
type Generator struct {
	config Config
	rng    *rand.Rand
}

// NewGenerator creates a new attrition data generator
func NewGenerator(config Config) *Generator {
	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateRecords returns the header and one record per employee
func (g *Generator) GenerateRecords() ([]string, [][]string) {
	records := make([][]string, 0, g.config.EmployeeCount)
	for i := 0; i < g.config.EmployeeCount; i++ {
		records = append(records, g.employee(i+1))
	}
	return Columns, records
}

func (g *Generator) employee(id int) []string {
	age := 22 + int(math.Round(math.Abs(g.rng.NormFloat64()*9+14)))
	if g.rng.Float64() < g.config.OutlierRate {
		age = 120 + g.rng.Intn(40)
	}
	dept := departments[g.rng.Intn(len(departments))]
	role := jobRoles[g.rng.Intn(len(jobRoles))]
	years := g.rng.Intn(minInt(age-18, 40) + 1)
	income := 2500 + float64(years)*180 + g.rng.Float64()*6000
	if role == "Director" || role == "Manager" {
		income *= 1.6
	}
	overtime := g.rng.Float64() < 0.3
	sat := satisfaction[g.rng.Intn(len(satisfaction))]

	// Younger, short-tenure, overtime-heavy staff leave more often.
	risk := g.config.LeftRate
	if r, ok := departmentRisk[dept]; ok {
		risk *= r
	}
	if overtime {
		risk *= 1.5
	}
	if years < 3 {
		risk *= 1.3
	}
	if sat == "Low" {
		risk *= 1.4
	}
	attrition := "Stayed"
	if g.rng.Float64() < math.Min(risk, 0.95) {
		attrition = "Left"
	}

	incomeCell := strconv.Itoa(int(income))
	if g.rng.Float64() < g.config.MissingRate {
		incomeCell = ""
	}

	return []string{
		strconv.Itoa(id),
		strconv.Itoa(age),
		[]string{"Male", "Female"}[g.rng.Intn(2)],
		dept,
		role,
		strconv.Itoa(years),
		incomeCell,
		sat,
		yesNo(overtime),
		maritalStatus[g.rng.Intn(len(maritalStatus))],
		strconv.Itoa(1 + g.rng.Intn(60)),
		attrition,
	}
}

// CSV renders the generated table as CSV bytes
func (g *Generator) CSV() ([]byte, error) {
	header, records := g.GenerateRecords()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
