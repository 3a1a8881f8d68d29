package tool

import (
	"github.com/cloudwego/eino/schema"
	statex "github.com/tanpawarit/Chative-Bank-Agent/agent/state"
)

// ToolID enumerates the tools the bank agent may call. ToolUnknown stands for
// any name outside the catalog.
type ToolID string

const (
	ToolUnknown              ToolID = ""
	ToolAccountOpeningFields ToolID = "get_account_opening_required_fields"
	ToolLoanFields           ToolID = "get_loan_required_fields"
	ToolValidatePhoneNumber  ToolID = "validate_phone_number"
	ToolValidateName         ToolID = "validate_name"
	ToolHumanResponse        ToolID = "human_response"
)

const (
	FieldName        = "name"
	FieldPhoneNumber = "phone_number"
	FieldLoanAmount  = "loan_amount"
)

var catalog = []ToolID{
	ToolAccountOpeningFields,
	ToolLoanFields,
	ToolValidatePhoneNumber,
	ToolValidateName,
	ToolHumanResponse,
}

// ParseToolID matches name exactly against the catalog.
func ParseToolID(name string) ToolID {
	for _, id := range catalog {
		if string(id) == name {
			return id
		}
	}
	return ToolUnknown
}

func (id ToolID) Known() bool {
	return id != ToolUnknown && ParseToolID(string(id)) == id
}

func (id ToolID) String() string {
	if id == ToolUnknown {
		return "unknown"
	}
	return string(id)
}

// Info describes the tool for model binding. It returns nil for ToolUnknown.
func (id ToolID) Info() *schema.ToolInfo {
	switch id {
	case ToolAccountOpeningFields:
		return &schema.ToolInfo{
			Name:        string(id),
			Desc:        "See what fields need to be request from the user to open an account",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		}
	case ToolLoanFields:
		return &schema.ToolInfo{
			Name:        string(id),
			Desc:        "See what fields need to be request from the user to take a loan",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		}
	case ToolValidatePhoneNumber:
		return &schema.ToolInfo{
			Name: string(id),
			Desc: "Check if the phone number is valid. Takes a phone number and checks if it is a valid Nepali phone number",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"phone_number": {Type: schema.String, Desc: "Phone number provided by the user", Required: true},
			}),
		}
	case ToolValidateName:
		return &schema.ToolInfo{
			Name: string(id),
			Desc: "Check if the name is valid. Valid names are at least 2 characters long and contain only letters",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name": {Type: schema.String, Desc: "Name provided by the user", Required: true},
			}),
		}
	case ToolHumanResponse:
		return &schema.ToolInfo{
			Name: string(id),
			Desc: "Request the missing data from the human",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Question shown to the human", Required: true},
			}),
		}
	default:
		return nil
	}
}

// Infos returns the tool catalog in a stable order.
func Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(catalog))
	for _, id := range catalog {
		out = append(out, id.Info())
	}
	return out
}

func AccountOpeningRequiredFields() []string {
	return []string{FieldName, FieldPhoneNumber}
}

func LoanRequiredFields() []string {
	return []string{FieldName, FieldLoanAmount}
}

// TaskFor reports which task a required-fields tool belongs to.
func TaskFor(id ToolID) (statex.TaskKind, bool) {
	switch id {
	case ToolAccountOpeningFields:
		return statex.TaskAccountOpening, true
	case ToolLoanFields:
		return statex.TaskLoan, true
	default:
		return "", false
	}
}

// RequiredFields returns a fresh copy of the field list for kind.
func RequiredFields(kind statex.TaskKind) []string {
	switch kind {
	case statex.TaskAccountOpening:
		return AccountOpeningRequiredFields()
	case statex.TaskLoan:
		return LoanRequiredFields()
	default:
		return nil
	}
}

// FieldValidator returns the validator for fields the catalog can check.
func FieldValidator(field string) (func(string) bool, bool) {
	switch field {
	case FieldName:
		return ValidateName, true
	case FieldPhoneNumber:
		return ValidatePhoneNumber, true
	default:
		return nil, false
	}
}
