/*
 * Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBaselineSet(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		blockSize int
		wantCount int
		wantBytes int64
	}{
		{name: "default sized", count: 4, blockSize: 1024 * 1024, wantCount: 4, wantBytes: 4 * 1024 * 1024},
		{name: "block smaller than a page", count: 3, blockSize: 100, wantCount: 3, wantBytes: 300},
		{name: "empty", count: 0, blockSize: 1024, wantCount: 0, wantBytes: 0},
		{name: "negative count", count: -1, blockSize: 1024, wantCount: 0, wantBytes: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewBaselineSet(tt.count, tt.blockSize)
			assert.Equal(t, tt.wantCount, set.Count())
			assert.Equal(t, tt.wantBytes, set.Bytes())
			for _, block := range set.blocks {
				assert.Len(t, block, tt.blockSize)
			}
		})
	}
}

func TestNewBaselineSet_TouchesEveryPage(t *testing.T) {
	set := NewBaselineSet(3, 3*pageSize+10)
	for i, block := range set.blocks {
		for off := 0; off < len(block); off += pageSize {
			assert.Equal(t, byte(i), block[off])
		}
	}
}
