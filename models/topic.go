package models

// Topic ist ein vom Clustering entdecktes Themen-Cluster.
//
// Die ID ist KEIN Autoincrement: sie ist das Cluster-Label des jeweiligen
// Trainingslaufs und wird bei jedem vollen Retrain komplett neu vergeben.
// Das Outlier-Label -1 wird nie als Topic persistiert.
type Topic struct {
	ID       int    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name     string `json:"name" gorm:"index"` // z.B. "0_ai_startup_funding"
	Count    int    `json:"count"`
	Keywords string `json:"keywords" gorm:"type:text"` // Komma-separierte Top-Begriffe
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Topic) TableName() string {
	return "topics"
}
