// Copyright 2025 VeloxVOIP.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package twilio

import (
	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	trunking "github.com/twilio/twilio-go/rest/trunking/v1"

	"github.com/veloxvoip/telephony-agent/pkg/config"
)

const listPageLimit = 50

// restAPI adapts the vendor SDK to the API interface.
type restAPI struct {
	client *twilio.RestClient
}

var _ API = (*restAPI)(nil)

// NewAPI builds the real provider client from config credentials.
func NewAPI(conf *config.Config) (API, error) {
	if err := conf.ValidateTwilio(); err != nil {
		return nil, err
	}
	return &restAPI{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: conf.Twilio.AccountSID,
			Password: conf.Twilio.AuthToken,
		}),
	}, nil
}

func (a *restAPI) CreateTrunk(name, domain string) (*Trunk, error) {
	params := &trunking.CreateTrunkParams{}
	params.SetFriendlyName(name)
	params.SetDomainName(domain)
	t, err := a.client.TrunkingV1.CreateTrunk(params)
	if err != nil {
		return nil, errors.Wrap(err, "creating trunk")
	}
	return &Trunk{SID: str(t.Sid), Name: str(t.FriendlyName), Domain: str(t.DomainName)}, nil
}

func (a *restAPI) ListTrunks() ([]Trunk, error) {
	params := &trunking.ListTrunkParams{}
	params.SetLimit(listPageLimit)
	items, err := a.client.TrunkingV1.ListTrunk(params)
	if err != nil {
		return nil, errors.Wrap(err, "listing trunks")
	}
	out := make([]Trunk, 0, len(items))
	for _, t := range items {
		out = append(out, Trunk{SID: str(t.Sid), Name: str(t.FriendlyName), Domain: str(t.DomainName)})
	}
	return out, nil
}

func (a *restAPI) CreateCredentialList(name string) (*CredentialList, error) {
	params := &twilioApi.CreateSipCredentialListParams{}
	params.SetFriendlyName(name)
	cl, err := a.client.Api.CreateSipCredentialList(params)
	if err != nil {
		return nil, errors.Wrap(err, "creating credential list")
	}
	return &CredentialList{SID: str(cl.Sid), Name: str(cl.FriendlyName)}, nil
}

func (a *restAPI) ListCredentialLists() ([]CredentialList, error) {
	params := &twilioApi.ListSipCredentialListParams{}
	params.SetLimit(listPageLimit)
	items, err := a.client.Api.ListSipCredentialList(params)
	if err != nil {
		return nil, errors.Wrap(err, "listing credential lists")
	}
	out := make([]CredentialList, 0, len(items))
	for _, cl := range items {
		out = append(out, CredentialList{SID: str(cl.Sid), Name: str(cl.FriendlyName)})
	}
	return out, nil
}

func (a *restAPI) CreateCredential(listSID, username, password string) error {
	params := &twilioApi.CreateSipCredentialParams{}
	params.SetUsername(username)
	params.SetPassword(password)
	_, err := a.client.Api.CreateSipCredential(listSID, params)
	return errors.Wrap(err, "creating credential")
}

func (a *restAPI) ListCredentialUsernames(listSID string) ([]string, error) {
	params := &twilioApi.ListSipCredentialParams{}
	params.SetLimit(listPageLimit)
	items, err := a.client.Api.ListSipCredential(listSID, params)
	if err != nil {
		return nil, errors.Wrap(err, "listing credentials")
	}
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, str(c.Username))
	}
	return out, nil
}

func (a *restAPI) AssociateCredentialList(trunkSID, listSID string) error {
	params := &trunking.CreateCredentialListParams{}
	params.SetCredentialListSid(listSID)
	_, err := a.client.TrunkingV1.CreateCredentialList(trunkSID, params)
	return errors.Wrap(err, "associating credential list")
}

func (a *restAPI) ListTrunkCredentialLists(trunkSID string) ([]CredentialList, error) {
	params := &trunking.ListCredentialListParams{}
	params.SetLimit(listPageLimit)
	items, err := a.client.TrunkingV1.ListCredentialList(trunkSID, params)
	if err != nil {
		return nil, errors.Wrap(err, "listing trunk credential lists")
	}
	out := make([]CredentialList, 0, len(items))
	for _, cl := range items {
		out = append(out, CredentialList{SID: str(cl.Sid), Name: str(cl.FriendlyName)})
	}
	return out, nil
}

func (a *restAPI) CreateOriginationURL(trunkSID string, u OriginationURL) error {
	params := &trunking.CreateOriginationUrlParams{}
	params.SetFriendlyName(u.Name)
	params.SetSipUrl(u.SIPURL)
	params.SetPriority(1)
	params.SetWeight(1)
	params.SetEnabled(u.Enabled)
	_, err := a.client.TrunkingV1.CreateOriginationUrl(trunkSID, params)
	return errors.Wrap(err, "creating origination URL")
}

func (a *restAPI) ListOriginationURLs(trunkSID string) ([]OriginationURL, error) {
	params := &trunking.ListOriginationUrlParams{}
	params.SetLimit(listPageLimit)
	items, err := a.client.TrunkingV1.ListOriginationUrl(trunkSID, params)
	if err != nil {
		return nil, errors.Wrap(err, "listing origination URLs")
	}
	out := make([]OriginationURL, 0, len(items))
	for _, u := range items {
		out = append(out, OriginationURL{
			SID:     str(u.Sid),
			Name:    str(u.FriendlyName),
			SIPURL:  str(u.SipUrl),
			Enabled: u.Enabled != nil && *u.Enabled,
		})
	}
	return out, nil
}

func (a *restAPI) ListPhoneNumbers(filter string) ([]PhoneNumber, error) {
	params := &twilioApi.ListIncomingPhoneNumberParams{}
	params.SetLimit(listPageLimit)
	if filter != "" {
		params.SetPhoneNumber(filter)
	}
	items, err := a.client.Api.ListIncomingPhoneNumber(params)
	if err != nil {
		return nil, errors.Wrap(err, "listing phone numbers")
	}
	out := make([]PhoneNumber, 0, len(items))
	for _, n := range items {
		out = append(out, PhoneNumber{SID: str(n.Sid), Number: str(n.PhoneNumber), Name: str(n.FriendlyName)})
	}
	return out, nil
}

func (a *restAPI) AssociatePhoneNumber(trunkSID, phoneSID string) error {
	params := &trunking.CreatePhoneNumberParams{}
	params.SetPhoneNumberSid(phoneSID)
	_, err := a.client.TrunkingV1.CreatePhoneNumber(trunkSID, params)
	return errors.Wrap(err, "associating phone number")
}

func (a *restAPI) ListTrunkPhoneNumbers(trunkSID string) ([]PhoneNumber, error) {
	params := &trunking.ListPhoneNumberParams{}
	params.SetLimit(listPageLimit)
	items, err := a.client.TrunkingV1.ListPhoneNumber(trunkSID, params)
	if err != nil {
		return nil, errors.Wrap(err, "listing trunk phone numbers")
	}
	out := make([]PhoneNumber, 0, len(items))
	for _, n := range items {
		out = append(out, PhoneNumber{SID: str(n.Sid), Number: str(n.PhoneNumber), Name: str(n.FriendlyName)})
	}
	return out, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
