package model

import (
	"fmt"
	"strconv"

	"formbase/backend/common"

	"github.com/burugo/thing"
)

// Option is a runtime-tunable system setting persisted as a key/value row.
type Option struct {
	thing.BaseModel
	Key   string `json:"key" db:"key,unique"`
	Value string `json:"value" db:"value"`
}

var OptionDB *thing.Thing[*Option]

// OptionInit is called by InitDB.
func OptionInit() error {
	var err error
	OptionDB, err = thing.Use[*Option]()
	return err
}

// UpdateOptionMap updates the central OptionMap with a new option value
func UpdateOptionMap(key string, value string) {
	common.OptionMapRWMutex.Lock()
	defer common.OptionMapRWMutex.Unlock()
	common.OptionMap[key] = value
}

// InitOptionMap seeds the option map with process defaults and overlays
// whatever is persisted in the database.
func InitOptionMap() error {
	common.OptionMapRWMutex.Lock()
	if common.OptionMap == nil {
		common.OptionMap = map[string]string{}
	}
	common.OptionMap["ServerAddress"] = common.ServerAddress
	common.OptionMap["SystemName"] = common.SystemName
	common.OptionMap["Port"] = strconv.Itoa(*common.Port)
	common.OptionMap["RegisterEnabled"] = strconv.FormatBool(common.RegisterEnabled)
	common.OptionMap["EnableGzip"] = strconv.FormatBool(*common.EnableGzip)
	common.OptionMapRWMutex.Unlock()

	if err := loadOptionsFromDB(); err != nil {
		common.SysError(fmt.Sprintf("Failed to initialize option map from database: %v", err))
		return err
	}
	return nil
}

func loadOptionsFromDB() error {
	if OptionDB == nil {
		return nil // OptionDB not initialized
	}
	options, err := OptionDB.All()
	if err != nil {
		return err
	}
	common.OptionMapRWMutex.Lock()
	defer common.OptionMapRWMutex.Unlock()
	for _, opt := range options {
		common.OptionMap[opt.Key] = opt.Value
	}
	return nil
}
