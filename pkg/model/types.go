package model

import (
	"database/sql"
	"errors"
)

// Defining possible error
var (
	ErrSpeciesNotFound       = errors.New("species not found")
	ErrNetworkMethodNotFound = errors.New("expression network method not found")
	ErrTreeMethodNotFound    = errors.New("tree method not found")
	ErrLiteratureNotFound    = errors.New("literature not found")
)

type Species struct {
	ID            int64
	Code          string
	Name          string
	SequenceCount int
	ProfileCount  int
	NetworkCount  int
}

// Sequence joined with the code of its species
type Sequence struct {
	ID          int64
	Name        string
	Type        string
	SpeciesID   int64
	SpeciesCode string
}

type Literature struct {
	ID          int64
	AuthorNames string
	PublicYear  int
	DOI         string
}

type ExpressionProfile struct {
	ID         int64
	SpeciesID  int64
	Probe      string
	SequenceID sql.NullInt64
	Profile    string
}

type SpecificityMethod struct {
	ID           int64
	SpeciesID    int64
	Description  string
	LiteratureID sql.NullInt64
	DataType     string
	MenuOrder    int
	Conditions   []string
}

type Specificity struct {
	ProfileID int64
	Condition string
	Score     float64
	Entropy   float64
	Tau       sql.NullFloat64
	MethodID  int64
}

type NetworkMethod struct {
	ID          int64
	SpeciesID   int64
	Description string
	EdgeType    string
	ProbeCount  int
	HRRCutoff   int
}

type NetworkEntry struct {
	ID         int64
	Probe      string
	SequenceID sql.NullInt64
	Network    string
	MethodID   int64
}

type NetworkLink struct {
	GeneID int64
	HRR    float64
}

type ClusteringMethod struct {
	ID              int64
	NetworkMethodID int64
	Method          string
	ClusterCount    int
}

// CoexpressionCluster with the species it was built for
type CoexpressionCluster struct {
	ID        int64
	MethodID  int64
	Name      string
	SpeciesID int64
}

type ClusterMember struct {
	Probe      sql.NullString
	SequenceID int64
	ClusterID  int64
}

type GOTerm struct {
	ID            int64
	Label         string
	Name          string
	Type          string
	SpeciesCounts map[int64]int
}

type ClusterGOEnrichment struct {
	ClusterID       int64
	GOID            int64
	ClusterCount    int
	ClusterSize     int
	GOCount         int
	GOSize          int
	Enrichment      float64
	PValue          float64
	CorrectedPValue float64
}

type Clade struct {
	ID      int64
	Name    string
	Species []string
}

type Tree struct {
	ID         int64
	Label      string
	DataNewick string
	MethodID   int64
}

type SequenceSequenceClade struct {
	SequenceOneID int64
	SequenceTwoID int64
	TreeID        int64
	CladeID       int64
	Duplication   bool
	Consistency   sql.NullFloat64
}
