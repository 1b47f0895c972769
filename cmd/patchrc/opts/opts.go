// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package opts

import (
	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/operation"
)

type RootOpts struct {
	ConfigFile string
	Debug      bool

	Config     *config.Config
	Logger     *log.Logger
	UserLogger *log.UserLogger
}

// Operator creates an operator for the loaded config. The console logger is
// filled in from the root options.
func (o *RootOpts) Operator(opts operation.Options) (operation.Operator, error) {
	opts.Config = o.Config
	opts.Logger = o.Logger
	return operation.New(opts)
}
