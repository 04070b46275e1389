package model

import (
	"errors"

	"formbase/backend/common"

	"github.com/burugo/thing"
	thingCommon "github.com/burugo/thing/common"
)

// ErrRecordNotFound is used when a record is not found
var ErrRecordNotFound = errors.New("record_not_found")

// User represents the user model in the database.
// Sensitive fields like Password should not be included in API responses.
type User struct {
	thing.BaseModel
	Username    string `json:"username" db:"username,unique"`
	Password    string `json:"-" db:"password"`
	DisplayName string `json:"display_name" db:"display_name"`
	Role        int    `json:"role" db:"role"`
	Status      int    `json:"status" db:"status"`
	Email       string `json:"email" db:"email"`
}

var UserDB *thing.Thing[*User]

// UserInit is called by InitDB.
func UserInit() error {
	var err error
	UserDB, err = thing.Use[*User]()
	return err
}

// GetUserById fetches a user row by primary key.
func GetUserById(id int64) (*User, error) {
	if id == 0 {
		return nil, errors.New("empty_id")
	}
	user, err := UserDB.ByID(id)
	if err != nil {
		if errors.Is(err, thingCommon.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return user, nil
}

func GetUserByUsername(username string) (*User, error) {
	users, err := UserDB.Where("username = ?", username).Fetch(0, 1)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrRecordNotFound
	}
	return users[0], nil
}

func (user *User) Insert() error {
	if user.Password != "" {
		var err error
		user.Password, err = common.Password2Hash(user.Password)
		if err != nil {
			return err
		}
	}
	if user.Status == 0 {
		user.Status = common.UserStatusEnabled
	}
	return UserDB.Save(user)
}

func (user *User) Update(updatePassword bool) error {
	if updatePassword {
		var err error
		user.Password, err = common.Password2Hash(user.Password)
		if err != nil {
			return err
		}
	}
	return UserDB.Save(user)
}

func (user *User) Delete() error {
	if user.ID == 0 {
		return errors.New("empty_id")
	}
	return UserDB.SoftDelete(user)
}

// ValidateAndFill checks the password against the stored hash and fills the
// receiver with the persisted row on success.
func (user *User) ValidateAndFill() error {
	password := user.Password
	if user.Username == "" || password == "" {
		return errors.New("username or password is empty")
	}
	found, err := GetUserByUsername(user.Username)
	if err != nil {
		return errors.New("invalid username or password")
	}
	if !common.ValidatePasswordAndHash(password, found.Password) {
		return errors.New("invalid username or password")
	}
	if found.Status != common.UserStatusEnabled {
		return errors.New("user is disabled")
	}
	*user = *found
	return nil
}

func GetMaxUserId() int64 {
	users, err := UserDB.Order("id DESC").Fetch(0, 1)
	if err != nil || len(users) == 0 {
		return 0
	}
	return users[0].ID
}
