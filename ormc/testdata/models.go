package fixtures

import "time"

type User struct {
	ID        int64
	FirstName string `db:"default=anon"`
	Email     string
	Score     float64
	IsActive  bool `db:"default=true"`
	Joined    time.Time
	Avatar    []byte
	age       int
}

type Project struct {
	ID    int64
	Name  string
	Tasks []Task
}

func (p *Project) TableName() string { return "project_list" }

type Task struct {
	ID        int64
	Title     string
	Status    string   `db:"enum"`
	Tags      []string `db:"allow=home|work"`
	Points    []int
	ProjectID int64 `db:"ref=project_list:id,strict"`
	OwnerID   int64 `db:"ref=users"`
	Notes     string `db:"-"`
}

type Orphan struct {
	ID     int64
	Parent []Missing
	Label  string
}

type Unsupp struct {
	Ch chan int
}

type BadEnum struct {
	Count int `db:"enum"`
}
