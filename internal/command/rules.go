/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package command

import "strings"

// Rule maps a set of trigger phrases to the token emitted when any of them
// occurs in an utterance
type Rule struct {
	Name     string
	Triggers []string
	Token    Token
}

// Matches reports whether any trigger is a case-sensitive substring of text
func (r Rule) Matches(text string) bool {
	for _, trigger := range r.Triggers {
		if strings.Contains(text, trigger) {
			return true
		}
	}
	return false
}

// Products lists the product-locator literals; product index is position+1
var Products = []string{
	"홈런볼",
	"새우깡",
	"꼬북칩",
	"빼빼로",
	"초코파이",
	"고래밥",
	"콜라",
	"사이다",
	"오렌지주스",
	"초코우유",
}

// Zones lists the zone-locator trigger sets; section index is position+1
var Zones = [][]string{
	{"A구역", "에이구역"},
	{"B구역", "비구역"},
	{"냉장고1", "냉장고 1"},
	{"냉장고2", "냉장고 2"},
}

// Rules returns the default kiosk rule table in priority order.
// The order is part of the dispatcher contract: an utterance that matches
// several rules yields the earliest one.
func Rules() []Rule {
	rules := []Rule{
		{Name: "door_open", Triggers: []string{"문 열", "문 좀 열"}, Token: Enable(DeviceDoor, true)},
		{Name: "door_close", Triggers: []string{"문 잠궈", "문 잠가", "문 잠가줘", "문 닫"}, Token: Enable(DeviceDoor, false)},
		{Name: "light_on", Triggers: []string{"불 켜", "조명 켜", "불 좀 켜"}, Token: Enable(DeviceLight, true)},
		{Name: "light_off", Triggers: []string{"불 꺼", "조명 꺼", "불 좀 꺼"}, Token: Enable(DeviceLight, false)},
		{Name: "ac_on", Triggers: []string{"에어컨 켜", "에어컨 좀 켜"}, Token: Enable(DeviceAirConditioner, true)},
		{Name: "ac_off", Triggers: []string{"에어컨 꺼", "에어컨 좀 꺼"}, Token: Enable(DeviceAirConditioner, false)},
		{Name: "blind_up", Triggers: []string{"블라인드 올려", "블라인드 좀 올려"}, Token: Enable(DeviceBlind, true)},
		{Name: "blind_down", Triggers: []string{"블라인드 내려", "블라인드 좀 내려"}, Token: Enable(DeviceBlind, false)},
	}

	for i, name := range Products {
		rules = append(rules, Rule{
			Name:     "product_" + name,
			Triggers: []string{name},
			Token:    Product(i + 1),
		})
	}

	for i, triggers := range Zones {
		rules = append(rules, Rule{
			Name:     "zone_" + triggers[0],
			Triggers: triggers,
			Token:    Section(i + 1),
		})
	}

	rules = append(rules,
		Rule{Name: "music_on", Triggers: []string{"음악 켜", "노래 틀어", "노래 좀 틀어"}, Token: Enable(DeviceMusic, true)},
		Rule{Name: "music_off", Triggers: []string{"음악 꺼", "노래 꺼"}, Token: Enable(DeviceMusic, false)},
		Rule{Name: "humidifier_on", Triggers: []string{"가습기 켜", "가습기 좀 켜"}, Token: Enable(DeviceHumidifier, true)},
		Rule{Name: "humidifier_off", Triggers: []string{"가습기 꺼", "가습기 좀 꺼"}, Token: Enable(DeviceHumidifier, false)},
	)

	return rules
}
