package model

// Difficulty 课程难度
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// GenerationStatus 课程生成状态。不落库，由课程结构派生：
// 至少一个单元且每个单元至少一个章节视为 completed，否则 generating。
// failed 由 Redis 中的失败标记推导（见 repository.GenerationStateRepository）。
type GenerationStatus string

const (
	StatusGenerating GenerationStatus = "generating"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// Course 一次生成任务产出的课程聚合根。
// 同一 (user_id, id) 只会创建一次，生成过程中按单元增量追加内容，
// 成功结束后不再修改。
// swagger:model Course
type Course struct {
	UUIDBase
	UserID        uint       `gorm:"index:idx_courses_user;not null" json:"userId"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Image         string     `gorm:"size:512" json:"image"`
	Topic         string     `gorm:"size:255;not null" json:"topic"`
	Difficulty    Difficulty `gorm:"type:enum('beginner','intermediate','advanced');not null" json:"difficulty"`
	DurationWeeks int        `gorm:"not null" json:"durationWeeks"`
	Units         []Unit     `gorm:"foreignKey:CourseID;references:ID" json:"units,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// Unit 课程单元，对应大纲中的一个周模块，按 Position 排序
type Unit struct {
	BaseModel
	CourseID string    `gorm:"size:36;index;not null" json:"courseId"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Week     int       `gorm:"default:0" json:"week"`
	Position int       `gorm:"default:0" json:"position"`
	Chapters []Chapter `gorm:"foreignKey:UnitID" json:"chapters,omitempty"`
}

func (Unit) TableName() string {
	return "units"
}

// Chapter 单元内的章节，阅读材料与视频链接均保证非空（失败时为兜底值）
type Chapter struct {
	BaseModel
	UnitID          uint   `gorm:"index;not null" json:"unitId"`
	Name            string `gorm:"size:255;not null" json:"name"`
	ReadingMaterial string `gorm:"type:longtext" json:"readingMaterial"`
	VideoLink       string `gorm:"size:512" json:"videoLink"`
	Position        int    `gorm:"default:0" json:"position"`
}

func (Chapter) TableName() string {
	return "chapters"
}
