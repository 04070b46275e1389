package model

import (
	"errors"

	"github.com/burugo/thing"
	thingCommon "github.com/burugo/thing/common"
)

// Form is a form design owned by a user. Design is the builder's JSON
// document: field definitions, theme, optional background/logo image
// references pointing at stored file paths or ids.
type Form struct {
	thing.BaseModel
	UserId      int64  `json:"user_id" db:"user_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Design      string `json:"design" db:"design"` // JSON document, opaque to the backend
	Status      int    `json:"status" db:"status"`
	PublicId    string `json:"public_id" db:"public_id,unique"` // share-link identifier
}

var FormDB *thing.Thing[*Form]

// FormInit is called by InitDB.
func FormInit() error {
	var err error
	FormDB, err = thing.Use[*Form]()
	return err
}

func (form *Form) Insert() error {
	return FormDB.Save(form)
}

func (form *Form) Update() error {
	return FormDB.Save(form)
}

func (form *Form) Delete() error {
	return FormDB.SoftDelete(form)
}

func GetFormById(id int64) (*Form, error) {
	if id == 0 {
		return nil, errors.New("empty_id")
	}
	form, err := FormDB.ByID(id)
	if err != nil {
		if errors.Is(err, thingCommon.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return form, nil
}

func GetFormByPublicId(publicId string) (*Form, error) {
	forms, err := FormDB.Where("public_id = ?", publicId).Fetch(0, 1)
	if err != nil {
		return nil, err
	}
	if len(forms) == 0 {
		return nil, ErrRecordNotFound
	}
	return forms[0], nil
}

func GetFormsByUser(userId int64, startIdx int, num int) ([]*Form, error) {
	return FormDB.Where("user_id = ?", userId).Order("id DESC").Fetch(startIdx, num)
}

// CountFormsReferencing reports how many form designs mention the given
// marker (a storage id or logical path). Used by the cleanup scheduler's
// orphan check.
func CountFormsReferencing(marker string) (int, error) {
	forms, err := FormDB.Where("design LIKE ?", "%"+marker+"%").Fetch(0, 1)
	if err != nil {
		return 0, err
	}
	return len(forms), nil
}
