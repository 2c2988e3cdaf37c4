package config

import (
	"reflect"

	"github.com/shuldan/eventbus/pkg/contracts"
)

var configType = reflect.TypeOf((*contracts.Config)(nil)).Elem()
