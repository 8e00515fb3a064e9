package domain

import "time"

// VisualNode is the presentation-free view model of one rendered tree node.
type VisualNode struct {
	Name       string       `json:"name"`
	Depth      int          `json:"depth"`
	StyleClass int          `json:"style_class"`
	IsRoot     bool         `json:"is_root"`
	IsLeaf     bool         `json:"is_leaf"`
	Expandable bool         `json:"expandable"`
	Expanded   bool         `json:"expanded"`
	Size       int64        `json:"size"`
	Score      float64      `json:"score"`
	SizeLabel  string       `json:"size_label"`
	ScoreLabel string       `json:"score_label"`
	Children   []VisualNode `json:"children,omitempty"`
}

type ModelTree struct {
	Model string     `json:"model"`
	Root  VisualNode `json:"root"`
}

type PickerItem struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Selected bool    `json:"selected"`
}

type RankingEntry struct {
	Position int      `json:"position"`
	Model    string   `json:"model"`
	Ranking  *float64 `json:"ranking"`
	Display  string   `json:"display"`
}

type RankingColumn struct {
	Path    string         `json:"path"`
	Title   string         `json:"title"`
	Label   string         `json:"label,omitempty"`
	Entries []RankingEntry `json:"entries"`
}

type PanelOffset struct {
	Panel  string  `json:"panel"`
	Offset float64 `json:"offset"`
}

type LeaderboardCell struct {
	Value   *float64 `json:"value"`
	Rank    int      `json:"rank,omitempty"`
	Display string   `json:"display"`
}

type LeaderboardRow struct {
	Model   string                     `json:"model"`
	Overall LeaderboardCell            `json:"overall"`
	Columns map[string]LeaderboardCell `json:"columns"`
}

type Leaderboard struct {
	Columns []string         `json:"columns"`
	Rows    []LeaderboardRow `json:"rows"`
}

type WeaknessEntry struct {
	Path       string  `json:"path"`
	Ranking    float64 `json:"ranking"`
	Difference float64 `json:"difference"`
}

type WeaknessReport struct {
	Model       string          `json:"model"`
	Threshold   float64         `json:"threshold"`
	RootRanked  bool            `json:"root_ranked"`
	RootRanking float64         `json:"root_ranking,omitempty"`
	Stronger    []WeaknessEntry `json:"stronger"`
	Weaker      []WeaknessEntry `json:"weaker"`
}

type LoadStatus string

const (
	LoadIdle    LoadStatus = "idle"
	LoadLoading LoadStatus = "loading"
	LoadReady   LoadStatus = "ready"
	LoadFailed  LoadStatus = "failed"
)

type LoadState struct {
	Status    LoadStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	Models    int        `json:"models"`
	Loaded    int        `json:"loaded_last"`
	StartedAt time.Time  `json:"started_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// SessionSnapshot is everything a presenter needs to draw one viewer session.
type SessionSnapshot struct {
	ID            string          `json:"id"`
	Filter        string          `json:"filter,omitempty"`
	Picker        []PickerItem    `json:"picker"`
	Selected      []string        `json:"selected"`
	Trees         []ModelTree     `json:"trees"`
	Offsets       []PanelOffset   `json:"offsets"`
	CategoryPaths []string        `json:"category_paths"`
	Rankings      []RankingColumn `json:"rankings"`
	Load          LoadState       `json:"load"`
	TaxonomyError string          `json:"taxonomy_error,omitempty"`
}
