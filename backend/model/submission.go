package model

import (
	"errors"

	"github.com/burugo/thing"
	thingCommon "github.com/burugo/thing/common"
)

// Submission is one filled-out form. Payload is the submitted field values
// as JSON; uploaded file fields carry the stored file's path or id.
type Submission struct {
	thing.BaseModel
	FormId    int64  `json:"form_id" db:"form_id"`
	UserId    int64  `json:"user_id" db:"user_id"` // 0 for anonymous submissions
	Payload   string `json:"payload" db:"payload"` // JSON document, opaque to the backend
	RemoteIP  string `json:"remote_ip" db:"remote_ip"`
	UserAgent string `json:"user_agent" db:"user_agent"`
}

var SubmissionDB *thing.Thing[*Submission]

// SubmissionInit is called by InitDB.
func SubmissionInit() error {
	var err error
	SubmissionDB, err = thing.Use[*Submission]()
	return err
}

func (s *Submission) Insert() error {
	return SubmissionDB.Save(s)
}

func (s *Submission) Delete() error {
	return SubmissionDB.Delete(s)
}

func GetSubmissionById(id int64) (*Submission, error) {
	if id == 0 {
		return nil, errors.New("empty_id")
	}
	submission, err := SubmissionDB.ByID(id)
	if err != nil {
		if errors.Is(err, thingCommon.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return submission, nil
}

func GetSubmissionsByForm(formId int64, startIdx int, num int) ([]*Submission, error) {
	return SubmissionDB.Where("form_id = ?", formId).Order("id DESC").Fetch(startIdx, num)
}

// CountSubmissionsReferencing reports whether any submission payload mentions
// the given marker (a storage id or logical path). Used by the cleanup
// scheduler's orphan check.
func CountSubmissionsReferencing(marker string) (int, error) {
	submissions, err := SubmissionDB.Where("payload LIKE ?", "%"+marker+"%").Fetch(0, 1)
	if err != nil {
		return 0, err
	}
	return len(submissions), nil
}
