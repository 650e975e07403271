/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"github.com/gin-gonic/gin"

	"github.com/stratastor/rodent/internal/common"
	"github.com/stratastor/rodent/internal/managers"
	"github.com/stratastor/rodent/pkg/lrs/api"
)

func registerLRSRoutes(engine *gin.Engine) {
	svc := managers.GetLRSService()
	if svc == nil {
		common.Log.Warn("LRS service not initialized, skipping route registration")
		return
	}

	handler := api.NewHandler(svc)

	v1 := engine.Group("/api/v1")
	{
		handler.RegisterRoutes(v1)
	}
}
