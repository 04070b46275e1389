package service

import (
	"strings"

	"formbase/backend/common"
	"formbase/backend/model"
)

// AllOptions returns the persisted options, hiding anything secret-bearing.
func AllOptions() ([]*model.Option, error) {
	options, err := model.OptionDB.All()
	if err != nil {
		return nil, err
	}
	visible := make([]*model.Option, 0, len(options))
	for _, opt := range options {
		if strings.Contains(opt.Key, "Secret") || strings.Contains(opt.Key, "Token") {
			continue
		}
		visible = append(visible, opt)
	}
	return visible, nil
}

// UpdateOption persists a key/value pair and refreshes the in-memory map.
func UpdateOption(key string, value string) error {
	options, err := model.OptionDB.Where("key = ?", key).Fetch(0, 1)
	if err != nil {
		return err
	}
	var option *model.Option
	if len(options) == 0 {
		option = &model.Option{Key: key}
	} else {
		option = options[0]
	}
	option.Value = value
	if err := model.OptionDB.Save(option); err != nil {
		return err
	}
	model.UpdateOptionMap(key, value)
	common.SysLog("option updated: " + key)
	return nil
}
