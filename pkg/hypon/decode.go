package hypon

import (
	"strings"

	"github.com/hyponcloud/hyponcloud/pkg/types"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// The decoders below map each field by hand. Unknown fields are ignored and
// missing ones keep their zero value or the documented default.

// envelope validates body and returns its "data" member, which must be an
// object or an array as requested.
func envelope(op string, body []byte, wantArray bool) (gjson.Result, gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, gjson.Result{}, malformedError(op, "invalid json")
	}
	root := gjson.ParseBytes(body)
	data := root.Get("data")
	switch {
	case !data.Exists():
		return root, data, malformedError(op, "missing data")
	case wantArray && !data.IsArray():
		return root, data, malformedError(op, "data is %s, expected array", data.Type)
	case !wantArray && !data.IsObject():
		return root, data, malformedError(op, "data is %s, expected object", data.Type)
	}
	return root, data, nil
}

func str(r gjson.Result) string {
	if r.Type == gjson.Null {
		return ""
	}
	return r.String()
}

func strOr(r gjson.Result, def string) string {
	if !r.Exists() || r.Type == gjson.Null {
		return def
	}
	return r.String()
}

func integer(r gjson.Result) int {
	return int(r.Int())
}

func decodeOverview(r gjson.Result) types.OverviewData {
	return types.OverviewData{
		Capacity:        r.Get("capacity").Float(),
		CapacityCompany: strOr(r.Get("capacity_company"), types.DefaultCapacityUnit),
		Power:           integer(r.Get("power")),
		Company:         strOr(r.Get("company"), types.DefaultPowerUnit),
		Percent:         integer(r.Get("percent")),
		EToday:          r.Get("e_today").Float(),
		ETotal:          r.Get("e_total").Float(),
		FaultDevNum:     integer(r.Get("fault_dev_num")),
		NormalDevNum:    integer(r.Get("normal_dev_num")),
		OfflineDevNum:   integer(r.Get("offline_dev_num")),
		WaitDevNum:      integer(r.Get("wait_dev_num")),
		TotalCO2:        integer(r.Get("total_co2")),
		TotalTree:       r.Get("total_tree").Float(),
	}
}

func decodePlant(r gjson.Result) types.PlantData {
	return types.PlantData{
		City:      str(r.Get("city")),
		Country:   str(r.Get("country")),
		EToday:    r.Get("e_today").Float(),
		ETotal:    r.Get("e_total").Float(),
		EID:       integer(r.Get("eid")),
		KWHImp:    integer(r.Get("kwhimp")),
		Micro:     integer(r.Get("micro")),
		PlantID:   str(r.Get("plant_id")),
		PlantName: str(r.Get("plant_name")),
		PlantType: str(r.Get("plant_type")),
		Power:     integer(r.Get("power")),
		Status:    str(r.Get("status")),
	}
}

// decodeInverter falls back to plantID when the record does not name its
// plant.
func decodeInverter(r gjson.Result, plantID string) types.InverterData {
	return types.InverterData{
		PlantID:         strOr(r.Get("plant_id"), plantID),
		SN:              str(r.Get("sn")),
		Model:           str(r.Get("model")),
		Status:          str(r.Get("status")),
		Power:           integer(r.Get("power")),
		EToday:          r.Get("e_today").Float(),
		ETotal:          r.Get("e_total").Float(),
		SoftwareVersion: str(r.Get("software_version")),
	}
}

func decodeAdminInfo(r gjson.Result) types.AdminInfo {
	var roles []string
	switch role := r.Get("role"); {
	case role.IsArray():
		for _, v := range role.Array() {
			roles = append(roles, v.String())
		}
	case role.Type == gjson.String:
		roles = []string{role.String()}
	}

	return types.AdminInfo{
		ParentName:        str(r.Get("parent_name")),
		Role:              roles,
		ParentID:          str(r.Get("parent_id")),
		HasLowerLevel:     r.Get("has_lower_level").Bool(),
		LastLoginTime:     str(r.Get("last_login_time")),
		CreatedAt:         str(r.Get("created_at")),
		DeletedAt:         str(r.Get("deleted_at")),
		Country:           str(r.Get("country")),
		Address:           str(r.Get("address")),
		Email:             str(r.Get("email")),
		Mobile:            str(r.Get("mobile")),
		MobilePrefixCode:  str(r.Get("mobile_prefix_code")),
		LoginName:         str(r.Get("login_name")),
		FirstName:         str(r.Get("first_name")),
		LastName:          str(r.Get("last_name")),
		Company:           str(r.Get("company")),
		City:              str(r.Get("city")),
		CityMobileCode:    str(r.Get("city_mobile_code")),
		Username:          str(r.Get("username")),
		CountryMobileCode: str(r.Get("country_mobile_code")),
		Photo:             str(r.Get("photo")),
		Address2:          str(r.Get("address2")),
		Language:          str(r.Get("language")),
		Currency:          str(r.Get("currency")),
		PostalCode:        str(r.Get("postal_code")),
		Timezone:          str(r.Get("timezone")),
		LastLoginIP:       str(r.Get("last_login_ip")),
		ID:                str(r.Get("id")),
		EID:               integer(r.Get("eid")),
		Manufacturer:      integer(r.Get("manufacturer")),
		SwitchWarning:     integer(r.Get("switch_warning")),
		IsInternal:        integer(r.Get("is_internal")),
		Status:            integer(r.Get("status")),
		FirstLogin:        r.Get("first_login").Bool(),
		Token:             str(r.Get("token")),
	}
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`:`, `\:`,
)

// flattenInfo moves every member of the nested "info" object up into data,
// overwriting top-level members with the same key, and drops "info". data is
// returned unchanged when "info" is absent or not an object.
func flattenInfo(data string) (string, error) {
	info := gjson.Get(data, "info")
	if !info.IsObject() {
		return data, nil
	}
	out, err := sjson.Delete(data, "info")
	if err != nil {
		return "", err
	}
	info.ForEach(func(key, value gjson.Result) bool {
		out, err = sjson.SetRaw(out, pathEscaper.Replace(key.String()), value.Raw)
		return err == nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
