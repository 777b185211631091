/*
 * Copyright 2026 The OrdainSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package conf holds the node configuration loaded from a yaml config file.
package conf

import (
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/OrdainSQL/OrdainSQL/proto"
	"github.com/OrdainSQL/OrdainSQL/utils/log"
)

// Config holds all the config read from yaml config file.
type Config struct {
	// WorkingRoot is the root directory of the chain and storage files.
	WorkingRoot    string       `yaml:"WorkingRoot"`
	PrivateKeyFile string       `yaml:"PrivateKeyFile"`
	ListenAddr     string       `yaml:"ListenAddr"`
	ThisNodeID     proto.NodeID `yaml:"ThisNodeID"`
	LogLevel       string       `yaml:"LogLevel"`

	// MaxConnections limits concurrent client connections of the wire server, 0 for default.
	MaxConnections int           `yaml:"MaxConnections"`
	ReadTimeout    time.Duration `yaml:"ReadTimeout"`
	WriteTimeout   time.Duration `yaml:"WriteTimeout"`
	IdleTimeout    time.Duration `yaml:"IdleTimeout"`

	// SanitizeCacheSize is the entry limit of the query sanitizer result cache, 0 for default.
	SanitizeCacheSize int `yaml:"SanitizeCacheSize"`
}

// GConf is the global config pointer.
var GConf *Config

// LoadConfig loads config from configPath.
func LoadConfig(configPath string) (config *Config, err error) {
	configBytes, err := ioutil.ReadFile(configPath)
	if err != nil {
		log.WithError(err).Error("read config file failed")
		return
	}
	config = &Config{}
	err = yaml.Unmarshal(configBytes, config)
	if err != nil {
		log.WithError(err).Error("unmarshal config file failed")
		return
	}
	if config.LogLevel != "" {
		log.SetStringLevel(config.LogLevel, log.InfoLevel)
	}
	return
}
