package salesforce

import (
	"fmt"
	"strings"
)

// Account is a customer Account with the retention fields maintained by
// account management.
type Account struct {
	ID              string  `json:"Id" salesforce:"Id"`
	Name            string  `json:"Name" salesforce:"Name"`
	Industry        string  `json:"Industry" salesforce:"Industry"`
	Segment         string  `json:"Customer_Segment__c" salesforce:"Customer_Segment__c"`
	Tier            string  `json:"Customer_Tier__c" salesforce:"Customer_Tier__c"`
	ContractValue   float64 `json:"Annual_Contract_Value__c" salesforce:"Annual_Contract_Value__c"`
	EngagementScore float64 `json:"Engagement_Score__c" salesforce:"Engagement_Score__c"`
	RenewalDate     string  `json:"Renewal_Date__c" salesforce:"Renewal_Date__c"` // YYYY-MM-DD
}

// CompetitorExposure is one Competitor_Exposure__c record: how strongly a
// competitor shows up in an account's sales conversations.
type CompetitorExposure struct {
	ID                    string  `json:"Id" salesforce:"Id"`
	AccountID             string  `json:"Account__c" salesforce:"Account__c"`
	CompetitorKey         string  `json:"Competitor_Key__c" salesforce:"Competitor_Key__c"`
	CallsMentioned        float64 `json:"Calls_Mentioned__c" salesforce:"Calls_Mentioned__c"`
	ConsideredAlternative bool    `json:"Considered_Alternative__c" salesforce:"Considered_Alternative__c"`
	RiskTag               string  `json:"Risk_Tag__c" salesforce:"Risk_Tag__c"`
}

var accountFields = []string{
	"Id", "Name", "Industry", "Customer_Segment__c", "Customer_Tier__c",
	"Annual_Contract_Value__c", "Engagement_Score__c", "Renewal_Date__c",
}

var exposureFields = []string{
	"Id", "Account__c", "Competitor_Key__c", "Calls_Mentioned__c",
	"Considered_Alternative__c", "Risk_Tag__c",
}

// RequiredFields lists the fields the queries in this package select, keyed
// by SObject. Standard Id fields are omitted.
func RequiredFields() map[string][]string {
	return map[string][]string{
		"Account":                accountFields[1:],
		"Competitor_Exposure__c": exposureFields[1:],
	}
}

func customerAccountsSOQL() string {
	return fmt.Sprintf(
		"SELECT %s FROM Account WHERE Customer_Tier__c != null ORDER BY Id",
		strings.Join(accountFields, ", "),
	)
}

func competitorExposuresSOQL(competitorKey string) string {
	return fmt.Sprintf(
		"SELECT %s FROM Competitor_Exposure__c WHERE Competitor_Key__c = '%s' ORDER BY Account__c",
		strings.Join(exposureFields, ", "),
		escapeSoql(competitorKey),
	)
}

// escapeSoql escapes backslashes and single quotes in SOQL string literals.
func escapeSoql(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
