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
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory provider account.
type fakeAPI struct {
	trunks      []Trunk
	credLists   []CredentialList
	credentials map[string][]string         // list SID -> usernames
	trunkCreds  map[string][]CredentialList // trunk SID -> lists
	origURLs    map[string][]OriginationURL // trunk SID -> URLs
	numbers     []PhoneNumber
	trunkNums   map[string][]PhoneNumber // trunk SID -> numbers

	createCalls int
	failOn      string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		credentials: map[string][]string{},
		trunkCreds:  map[string][]CredentialList{},
		origURLs:    map[string][]OriginationURL{},
		trunkNums:   map[string][]PhoneNumber{},
	}
}

func (f *fakeAPI) fail(step string) error {
	if f.failOn == step {
		return errors.Errorf("injected failure at %s", step)
	}
	return nil
}

func (f *fakeAPI) CreateTrunk(name, domain string) (*Trunk, error) {
	if err := f.fail("CreateTrunk"); err != nil {
		return nil, err
	}
	f.createCalls++
	t := Trunk{SID: fmt.Sprintf("TK%04d", len(f.trunks)), Name: name, Domain: domain}
	f.trunks = append(f.trunks, t)
	return &t, nil
}

func (f *fakeAPI) ListTrunks() ([]Trunk, error) { return f.trunks, nil }

func (f *fakeAPI) CreateCredentialList(name string) (*CredentialList, error) {
	if err := f.fail("CreateCredentialList"); err != nil {
		return nil, err
	}
	f.createCalls++
	cl := CredentialList{SID: fmt.Sprintf("CL%04d", len(f.credLists)), Name: name}
	f.credLists = append(f.credLists, cl)
	return &cl, nil
}

func (f *fakeAPI) ListCredentialLists() ([]CredentialList, error) { return f.credLists, nil }

func (f *fakeAPI) CreateCredential(listSID, username, password string) error {
	if err := f.fail("CreateCredential"); err != nil {
		return err
	}
	f.createCalls++
	f.credentials[listSID] = append(f.credentials[listSID], username)
	return nil
}

func (f *fakeAPI) ListCredentialUsernames(listSID string) ([]string, error) {
	return f.credentials[listSID], nil
}

func (f *fakeAPI) AssociateCredentialList(trunkSID, listSID string) error {
	if err := f.fail("AssociateCredentialList"); err != nil {
		return err
	}
	f.createCalls++
	for _, cl := range f.credLists {
		if cl.SID == listSID {
			f.trunkCreds[trunkSID] = append(f.trunkCreds[trunkSID], cl)
		}
	}
	return nil
}

func (f *fakeAPI) ListTrunkCredentialLists(trunkSID string) ([]CredentialList, error) {
	return f.trunkCreds[trunkSID], nil
}

func (f *fakeAPI) CreateOriginationURL(trunkSID string, u OriginationURL) error {
	if err := f.fail("CreateOriginationURL"); err != nil {
		return err
	}
	f.createCalls++
	f.origURLs[trunkSID] = append(f.origURLs[trunkSID], u)
	return nil
}

func (f *fakeAPI) ListOriginationURLs(trunkSID string) ([]OriginationURL, error) {
	return f.origURLs[trunkSID], nil
}

func (f *fakeAPI) ListPhoneNumbers(filter string) ([]PhoneNumber, error) {
	if filter == "" {
		return f.numbers, nil
	}
	var out []PhoneNumber
	for _, n := range f.numbers {
		if n.Number == filter {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeAPI) AssociatePhoneNumber(trunkSID, phoneSID string) error {
	if err := f.fail("AssociatePhoneNumber"); err != nil {
		return err
	}
	f.createCalls++
	for _, n := range f.numbers {
		if n.SID == phoneSID {
			f.trunkNums[trunkSID] = append(f.trunkNums[trunkSID], n)
		}
	}
	return nil
}

func (f *fakeAPI) ListTrunkPhoneNumbers(trunkSID string) ([]PhoneNumber, error) {
	return f.trunkNums[trunkSID], nil
}

func testRequest() SetupRequest {
	return SetupRequest{
		TrunkName:   "velox-trunk",
		Domain:      "velox-trunk.pstn.twilio.com",
		SIPURI:      "sip:sip.livekit.cloud",
		Username:    "sipuser",
		Password:    "sippass",
		PhoneNumber: "+14155551234",
	}
}

func TestSetupCreatesEverything(t *testing.T) {
	api := newFakeAPI()
	api.numbers = []PhoneNumber{{SID: "PN0001", Number: "+14155551234"}}

	res, err := NewProvisioner(api).Setup(testRequest())
	require.NoError(t, err)

	require.Len(t, api.trunks, 1)
	require.Equal(t, "velox-trunk.pstn.twilio.com", res.Trunk.Domain)
	require.Len(t, api.credLists, 1)
	require.Equal(t, []string{"sipuser"}, api.credentials[res.CredentialList.SID])
	require.Len(t, api.trunkCreds[res.Trunk.SID], 1)
	require.Len(t, api.origURLs[res.Trunk.SID], 1)
	require.True(t, api.origURLs[res.Trunk.SID][0].Enabled)
	require.True(t, res.NumberAttached)
	require.Len(t, api.trunkNums[res.Trunk.SID], 1)
}

func TestSetupIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	api.numbers = []PhoneNumber{{SID: "PN0001", Number: "+14155551234"}}
	p := NewProvisioner(api)

	_, err := p.Setup(testRequest())
	require.NoError(t, err)
	created := api.createCalls

	// second run finds everything and creates nothing
	_, err = p.Setup(testRequest())
	require.NoError(t, err)
	require.Equal(t, created, api.createCalls)

	require.Len(t, api.trunks, 1)
	require.Len(t, api.credLists, 1)
	require.Len(t, api.credentials["CL0000"], 1)
	require.Len(t, api.origURLs["TK0000"], 1)
	require.Len(t, api.trunkNums["TK0000"], 1)
}

func TestSetupMissingNumberIsNotFatal(t *testing.T) {
	api := newFakeAPI() // account owns no numbers

	res, err := NewProvisioner(api).Setup(testRequest())
	require.NoError(t, err)
	require.False(t, res.NumberAttached)
	require.Empty(t, api.trunkNums[res.Trunk.SID])
}

func TestSetupAbortsOnFailure(t *testing.T) {
	api := newFakeAPI()
	api.failOn = "CreateOriginationURL"

	_, err := NewProvisioner(api).Setup(testRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "CreateOriginationURL")
	// earlier steps stay; nothing is rolled back
	require.Len(t, api.trunks, 1)
	require.Len(t, api.credLists, 1)
}

func TestSetupValidation(t *testing.T) {
	api := newFakeAPI()
	p := NewProvisioner(api)

	req := testRequest()
	req.Domain = "velox-trunk.example.com"
	_, err := p.Setup(req)
	require.Error(t, err)

	req = testRequest()
	req.PhoneNumber = "+0123"
	_, err = p.Setup(req)
	require.Error(t, err)

	// validation failures never reach the API
	require.Zero(t, api.createCalls)
}
