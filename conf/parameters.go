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

package conf

import "time"

// This parameters should be kept consistent in all nodes.
const (
	// ChainStatPeriod is the chain pool stat report period.
	ChainStatPeriod = 10 * time.Second
	// DefaultSanitizeCacheSize is the default entry limit of the query sanitizer result cache.
	DefaultSanitizeCacheSize = 4096
)
